package workflow

import "fmt"

// State is a lifecycle code. Codes are stable wire values (S00..S19).
type State string

// StateUnset marks an absent branch. It is never a lifecycle code.
const StateUnset State = ""

const (
	StateDraft State = "S00"
	StateNew   State = "S01"

	StateAwaitingPickupBO State = "S02"
	StateInReviewBO       State = "S03"
	StateNeedsRevisionBO  State = "S04"
	StateValidatedBO      State = "S16"

	StateAwaitingPickupBOF State = "S05"
	StateInReviewBOF       State = "S06"
	StateNeedsRevisionBOF  State = "S07"
	StateValidatedBOF      State = "S17"

	StateAwaitingPickupBOU State = "S08"
	StateInReviewBOU       State = "S09"
	StateNeedsRevisionBOU  State = "S10"
	StateValidatedBOU      State = "S18"

	StateApproved State = "S11"

	// StateReadyForDelivery is the "fase finale": a delivery operator holds
	// the case but has not sent it to delivery control yet.
	StateReadyForDelivery              State = "S12"
	StateAwaitingDeliveryControlPickup State = "S19"
	StateDeliveryInReview              State = "S13"
	StateDeliveryNeedsRevision         State = "S14"

	StateDelivered State = "S15"
)

// Group is the logical phase a State belongs to.
type Group int

const (
	GroupUnknown Group = iota
	GroupDraft
	GroupIntake
	GroupValidationBO
	GroupValidationBOF
	GroupValidationBOU
	GroupApproved
	GroupDelivery
	GroupDelivered
)

var groupNames = map[Group]string{
	GroupUnknown:       "unknown",
	GroupDraft:         "draft",
	GroupIntake:        "intake",
	GroupValidationBO:  "validation_bo",
	GroupValidationBOF: "validation_bof",
	GroupValidationBOU: "validation_bou",
	GroupApproved:      "approved",
	GroupDelivery:      "delivery",
	GroupDelivered:     "delivered",
}

func (g Group) String() string {
	if s, ok := groupNames[g]; ok {
		return s
	}
	return fmt.Sprintf("group(%d)", int(g))
}

// allStates is in lifecycle order. Tests rely on it being exhaustive.
var allStates = []State{
	StateDraft,
	StateNew,
	StateAwaitingPickupBO, StateInReviewBO, StateNeedsRevisionBO, StateValidatedBO,
	StateAwaitingPickupBOF, StateInReviewBOF, StateNeedsRevisionBOF, StateValidatedBOF,
	StateAwaitingPickupBOU, StateInReviewBOU, StateNeedsRevisionBOU, StateValidatedBOU,
	StateApproved,
	StateReadyForDelivery, StateAwaitingDeliveryControlPickup, StateDeliveryInReview, StateDeliveryNeedsRevision,
	StateDelivered,
}

// AllStates returns every lifecycle code in lifecycle order.
func AllStates() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}

// ParseState validates a wire code.
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return StateUnset, fmt.Errorf("unknown state code %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the lifecycle codes.
func (s State) Valid() bool {
	return s.Group() != GroupUnknown
}

// Group classifies s. Every code belongs to exactly one group.
func (s State) Group() Group {
	switch s {
	case StateDraft:
		return GroupDraft
	case StateNew:
		return GroupIntake
	case StateAwaitingPickupBO, StateInReviewBO, StateNeedsRevisionBO, StateValidatedBO:
		return GroupValidationBO
	case StateAwaitingPickupBOF, StateInReviewBOF, StateNeedsRevisionBOF, StateValidatedBOF:
		return GroupValidationBOF
	case StateAwaitingPickupBOU, StateInReviewBOU, StateNeedsRevisionBOU, StateValidatedBOU:
		return GroupValidationBOU
	case StateApproved:
		return GroupApproved
	case StateReadyForDelivery, StateAwaitingDeliveryControlPickup, StateDeliveryInReview, StateDeliveryNeedsRevision:
		return GroupDelivery
	case StateDelivered:
		return GroupDelivered
	default:
		return GroupUnknown
	}
}

// Branch returns the validation branch s belongs to, if any.
func (s State) Branch() (Area, bool) {
	switch s.Group() {
	case GroupValidationBO:
		return AreaBO, true
	case GroupValidationBOF:
		return AreaBOF, true
	case GroupValidationBOU:
		return AreaBOU, true
	default:
		return "", false
	}
}

// IsBackOfficeValidation reports whether s is a per-branch validation sub-state.
func (s State) IsBackOfficeValidation() bool {
	_, ok := s.Branch()
	return ok
}

// IsDelivery reports whether s belongs to the delivery area.
func (s State) IsDelivery() bool {
	return s.Group() == GroupDelivery
}

// IsNeedsRevision reports whether s sends a branch back to the salesperson.
func (s State) IsNeedsRevision() bool {
	return s == StateNeedsRevisionBO || s == StateNeedsRevisionBOF || s == StateNeedsRevisionBOU
}

// IsValidated reports whether s is a branch VALIDATED sub-state.
func (s State) IsValidated() bool {
	return s == StateValidatedBO || s == StateValidatedBOF || s == StateValidatedBOU
}

// BranchSet holds the four sub-states of one validation branch.
type BranchSet struct {
	AwaitingPickup State
	InReview       State
	NeedsRevision  State
	Validated      State
}

var branchSets = map[Area]BranchSet{
	AreaBO:  {StateAwaitingPickupBO, StateInReviewBO, StateNeedsRevisionBO, StateValidatedBO},
	AreaBOF: {StateAwaitingPickupBOF, StateInReviewBOF, StateNeedsRevisionBOF, StateValidatedBOF},
	AreaBOU: {StateAwaitingPickupBOU, StateInReviewBOU, StateNeedsRevisionBOU, StateValidatedBOU},
}

// BranchStates returns the sub-states of a branch area. ok is false for
// DELIVERY and VRC.
func BranchStates(a Area) (BranchSet, bool) {
	set, ok := branchSets[a]
	return set, ok
}

var stateLabels = map[State]string{
	StateDraft:                         "Bozza",
	StateNew:                           "Nuovo",
	StateAwaitingPickupBO:              "In attesa di presa in carico",
	StateAwaitingPickupBOF:             "In attesa di presa in carico",
	StateAwaitingPickupBOU:             "In attesa di presa in carico",
	StateInReviewBO:                    "In verifica",
	StateInReviewBOF:                   "In verifica",
	StateInReviewBOU:                   "In verifica",
	StateNeedsRevisionBO:               "Da controllare",
	StateNeedsRevisionBOF:              "Da controllare",
	StateNeedsRevisionBOU:              "Da controllare",
	StateValidatedBO:                   "Validato",
	StateValidatedBOF:                  "Validato",
	StateValidatedBOU:                  "Validato",
	StateApproved:                      "Approvato",
	StateReadyForDelivery:              "Fase finale",
	StateAwaitingDeliveryControlPickup: "Consegna - in attesa di verifica",
	StateDeliveryInReview:              "Consegna - in verifica",
	StateDeliveryNeedsRevision:         "Consegna - da controllare",
	StateDelivered:                     "Completato",
}

// Label is the display label of s. An absent branch renders as "—".
func (s State) Label() string {
	if l, ok := stateLabels[s]; ok {
		return l
	}
	if s == StateUnset {
		return "—"
	}
	return string(s)
}

func (s State) String() string {
	if s == StateUnset {
		return "unset"
	}
	return string(s)
}
