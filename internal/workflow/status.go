package workflow

// Variant is the badge color family of a visible status.
type Variant string

const (
	VariantSuccess   Variant = "success"
	VariantWarning   Variant = "warning"
	VariantDanger    Variant = "danger"
	VariantSecondary Variant = "secondary"
)

// MacroValidationLabel is shown to roles without a branch of their own
// while the case is in back-office validation.
const MacroValidationLabel = "In validazione (BackOffice)"

// Status is what a viewer sees for a case or a branch.
type Status struct {
	Label   string  `json:"label"`
	Variant Variant `json:"variant"`
	Code    State   `json:"code,omitempty"`
}

// VariantOf returns the badge variant of a state.
func VariantOf(s State) Variant {
	switch {
	case s == StateDelivered || s == StateApproved:
		return VariantSuccess
	case s.IsNeedsRevision() || s == StateDeliveryNeedsRevision:
		return VariantDanger
	case s == StateAwaitingPickupBO, s == StateAwaitingPickupBOF, s == StateAwaitingPickupBOU,
		s == StateAwaitingDeliveryControlPickup:
		return VariantWarning
	case s == StateInReviewBO, s == StateInReviewBOF, s == StateInReviewBOU,
		s == StateDeliveryInReview:
		return VariantWarning
	default:
		return VariantSecondary
	}
}

func statusOf(s State) Status {
	return Status{Label: s.Label(), Variant: VariantOf(s), Code: s}
}

// VisibleStatus is the status a viewer holding role sees in lists and
// headers. Outside back-office validation everybody sees the overall
// state. During validation back-office roles see their own branch, the
// salesperson sees a bounced branch if there is one, and everybody else
// sees the macro label.
func VisibleStatus(c *Case, role Role) Status {
	overall := ResolveOverall(c)
	if overall.Group() != GroupValidationBO {
		return statusOf(overall)
	}

	macro := Status{Label: MacroValidationLabel, Variant: VariantWarning, Code: overall}
	switch role {
	case RoleBO, RoleBOF, RoleBOU:
		area, _ := role.BackOfficeArea()
		if !AreaActive(c, area) {
			return statusOf(StateUnset)
		}
		return statusOf(ResolveBranchState(c, area))
	case RoleSalesperson:
		if s, ok := firstNeedsRevision(c); ok {
			return statusOf(s)
		}
		return macro
	default:
		return macro
	}
}

// BranchBadge is the status of one validation branch.
type BranchBadge struct {
	Area   Area   `json:"area"`
	Active bool   `json:"active"`
	Status Status `json:"status"`
}

// BranchBadges returns one badge per validation branch in BO, BOF, BOU
// order. Inactive branches render as "—".
func BranchBadges(c *Case) []BranchBadge {
	out := make([]BranchBadge, 0, len(Branches))
	for _, b := range Branches {
		badge := BranchBadge{Area: b, Active: AreaActive(c, b)}
		if badge.Active {
			badge.Status = statusOf(ResolveBranchState(c, b))
		} else {
			badge.Status = statusOf(StateUnset)
		}
		out = append(out, badge)
	}
	return out
}
