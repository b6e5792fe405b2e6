package workflow

import "strings"

// Context is the role-relative projection of a case read by Can.
type Context struct {
	// State is the single state relevant to the viewing role.
	State   State `json:"state"`
	Overall State `json:"overall"`

	OwnerID          string `json:"ownerId,omitempty"`
	HasFinanziamento bool   `json:"hasFinanziamento"`
	HasPermuta       bool   `json:"hasPermuta"`

	InChargeBO       string `json:"inChargeBO,omitempty"`
	InChargeBOF      string `json:"inChargeBOF,omitempty"`
	InChargeBOU      string `json:"inChargeBOU,omitempty"`
	InChargeDelivery string `json:"inChargeDelivery,omitempty"`
	InChargeVRC      string `json:"inChargeVRC,omitempty"`

	DeliverySentToVRC bool `json:"deliverySentToVRC"`
}

// areaActive reports whether the context carries an active area.
func (ctx Context) areaActive(a Area) bool {
	switch a {
	case AreaBOF:
		return ctx.HasFinanziamento
	case AreaBOU:
		return ctx.HasPermuta
	default:
		return true
	}
}

// BuildContext projects c for a viewer holding role. It is recomputed on
// every call and never stored on the case.
func BuildContext(c *Case, role Role) Context {
	if c == nil {
		return Context{}
	}
	overall := ResolveOverall(c)
	ctx := Context{
		State:             overall,
		Overall:           overall,
		OwnerID:           c.OwnerID,
		HasFinanziamento:  AreaActive(c, AreaBOF),
		HasPermuta:        AreaActive(c, AreaBOU),
		InChargeBO:        c.InChargeBO,
		InChargeBOF:       c.InChargeBOF,
		InChargeBOU:       c.InChargeBOU,
		InChargeDelivery:  c.InChargeDelivery,
		InChargeVRC:       c.InChargeVRC,
		DeliverySentToVRC: c.DeliverySentToVRC,
	}

	switch role {
	case RoleBO, RoleBOF, RoleBOU:
		area, _ := role.BackOfficeArea()
		ctx.State = ResolveBranchState(c, area)
	case RoleSalesperson:
		if s, ok := firstNeedsRevision(c); ok {
			ctx.State = s
		}
	}
	return ctx
}

// firstNeedsRevision scans active branches in BO, BOF, BOU order.
func firstNeedsRevision(c *Case) (State, bool) {
	for _, b := range Branches {
		if !AreaActive(c, b) {
			continue
		}
		if s := ResolveBranchState(c, b); s.IsNeedsRevision() {
			return s, true
		}
	}
	return StateUnset, false
}

// ResolveBranchState is the one precedence rule for reading a branch:
//
//  1. the stored branch state, when present;
//  2. for BOF/BOU on a case awaiting back-office pickup, the branch's own
//     AWAITING_PICKUP (records written before branches were stored);
//  3. the overall state.
func ResolveBranchState(c *Case, a Area) State {
	if c == nil {
		return StateUnset
	}
	if s := c.Workflow.Branch(a); s != StateUnset {
		return s
	}
	overall := ResolveOverall(c)
	if overall == StateAwaitingPickupBO && a != AreaBO {
		if set, ok := BranchStates(a); ok {
			return set.AwaitingPickup
		}
	}
	return overall
}

// AreaActive reports whether an area takes part in the case.
//
// BO, DELIVERY and VRC are always active. For BOF and BOU an explicit flag
// decides. A record without the flag is active when the branch is stored
// or the case sits in back-office pickup.
func AreaActive(c *Case, a Area) bool {
	if c == nil {
		return false
	}
	var flag *bool
	switch a {
	case AreaBOF:
		flag = c.HasFinanziamento
	case AreaBOU:
		flag = c.HasPermuta
	default:
		return true
	}
	if flag != nil {
		return *flag
	}
	return c.Workflow.Branch(a) != StateUnset || ResolveOverall(c) == StateAwaitingPickupBO
}

var ownerPlaceholders = map[string]bool{
	"":        true,
	"—":       true,
	"-":       true,
	"nessuno": true,
}

// isPlaceholder reports whether id stands for "no owner".
func isPlaceholder(id string) bool {
	return ownerPlaceholders[strings.ToLower(strings.TrimSpace(id))]
}

// NormalizeOwner maps placeholder owners to "" and returns any other
// owner id unchanged.
func NormalizeOwner(ownerID string) string {
	if isPlaceholder(ownerID) {
		return ""
	}
	return ownerID
}

// IsOwner reports whether userID owns a case with ownerID. Ids compare
// exactly; placeholder owners never match.
func IsOwner(ownerID, userID string) bool {
	if isPlaceholder(ownerID) || isPlaceholder(userID) {
		return false
	}
	return ownerID == userID
}
