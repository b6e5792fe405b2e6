package queryir

import "github.com/roach88/fascicolo/internal/workflow"

// All selects every case.
func All() Worklist { return Worklist{} }

// ByID selects a single case.
func ByID(id string) Worklist {
	return Worklist{Filter: Equals{Field: FieldID, Value: id}, Limit: 1}
}

// OverallIn matches cases whose resolved overall state is one of states.
func OverallIn(states ...workflow.State) Predicate {
	if len(states) == 1 {
		return Equals{Field: FieldOverall, Value: string(states[0])}
	}
	vals := make([]any, len(states))
	for i, s := range states {
		vals[i] = string(s)
	}
	return In{Field: FieldOverall, Values: vals}
}

// OwnedBy matches cases owned by userID. The store keeps placeholder
// owners as "", so a placeholder userID matches no owned case.
func OwnedBy(userID string) Predicate {
	return Equals{Field: FieldOwner, Value: workflow.NormalizeOwner(userID)}
}

// InChargeOf matches cases where userID possesses any area.
func InChargeOf(userID string) Predicate {
	preds := make([]Predicate, len(InChargeFields))
	for i, f := range InChargeFields {
		preds[i] = Equals{Field: f, Value: userID}
	}
	return Or{Predicates: preds}
}

var branchFields = map[workflow.Area]Field{
	workflow.AreaBO:  FieldBO,
	workflow.AreaBOF: FieldBOF,
	workflow.AreaBOU: FieldBOU,
}

// PickupCandidates narrows the store to cases that may sit in role's
// pickup pool. It is a superset: the final answer comes from
// workflow.Available on each returned case. Roles without a pickup
// action report false.
func PickupCandidates(role workflow.Role) (Predicate, bool) {
	switch role {
	case workflow.RoleSalesperson:
		return OverallIn(workflow.StateDraft), true
	case workflow.RoleBO, workflow.RoleBOF, workflow.RoleBOU:
		area, _ := role.BackOfficeArea()
		set, _ := workflow.BranchStates(area)
		return Or{Predicates: []Predicate{
			Equals{Field: branchFields[area], Value: string(set.AwaitingPickup)},
			OverallIn(workflow.StateAwaitingPickupBO),
		}}, true
	case workflow.RoleDeliveryOperator:
		return OverallIn(workflow.StateApproved), true
	case workflow.RoleDeliveryControl:
		return OverallIn(workflow.StateAwaitingDeliveryControlPickup), true
	default:
		return nil, false
	}
}

// Worked narrows the store to cases user may be working on: owned by a
// salesperson, or possessed in any area for other roles. Like
// PickupCandidates it is refined with workflow.HoldsCase.
func Worked(user workflow.User) Predicate {
	if user.Role == workflow.RoleSalesperson {
		return OwnedBy(user.ID)
	}
	return InChargeOf(user.ID)
}
