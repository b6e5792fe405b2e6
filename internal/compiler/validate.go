package compiler

import (
	"fmt"
	"time"

	"github.com/roach88/fascicolo/internal/workflow"
)

// Validation error codes (E100-E199)
const (
	ErrDuplicateCaseID     = "E101" // two fixtures share an id
	ErrBranchStateMismatch = "E102" // branch holds a state from another branch
	ErrInactiveBranch      = "E103" // branch stored on an area flagged off
	ErrTimeOrder           = "E104" // updatedAt before createdAt
	ErrLegacyStatus        = "E105" // stato disagrees with workflow.overall
	ErrOverallState        = "E106" // overall holds a branch-only state
	ErrInChargeState       = "E107" // possessor set on a branch not in review
)

// ValidationError represents a fixture invariant violation.
type ValidationError struct {
	CaseID  string `json:"case_id,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.CaseID != "" {
		return fmt.Sprintf("[%s] case %s: %s: %s", e.Code, e.CaseID, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled cases against the workflow invariants the
// schema cannot express. Returns all errors found (does not fail-fast).
func Validate(cases []*workflow.Case) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int, len(cases))

	for i, c := range cases {
		if prev, ok := seen[c.ID]; ok {
			errs = append(errs, ValidationError{
				CaseID:  c.ID,
				Field:   fmt.Sprintf("cases[%d].id", i),
				Message: fmt.Sprintf("duplicate case id, first defined at cases[%d]", prev),
				Code:    ErrDuplicateCaseID,
			})
			continue
		}
		seen[c.ID] = i
		errs = append(errs, validateCase(c)...)
	}
	return errs
}

func validateCase(c *workflow.Case) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			CaseID:  c.ID,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	overall := c.Workflow.Overall
	if _, branch := overall.Branch(); branch && overall != workflow.StateAwaitingPickupBO {
		add("workflow.overall", ErrOverallState, "%s is a branch state", overall)
	}

	for _, a := range workflow.Branches {
		s := c.Workflow.Branch(a)
		field := "workflow." + branchKeys[a]
		if s == workflow.StateUnset {
			continue
		}
		if !branchAllows(a, s) {
			add(field, ErrBranchStateMismatch, "%s is not a %s state", s, a)
		}
		if flag := areaFlag(c, a); flag != nil && !*flag {
			add(field, ErrInactiveBranch, "branch stored but %s is not active", a)
		}
	}

	for _, a := range workflow.Branches {
		holder := c.InCharge(a)
		if holder == "" {
			continue
		}
		set, _ := workflow.BranchStates(a)
		if workflow.ResolveBranchState(c, a) != set.InReview {
			add("inCharge"+string(a), ErrInChargeState, "held by %q outside %s", holder, set.InReview)
		}
	}

	if !c.CreatedAt.IsZero() && c.UpdatedAt.Before(c.CreatedAt) {
		add("updatedAt", ErrTimeOrder, "updatedAt %s is before createdAt %s",
			c.UpdatedAt.Format(time.RFC3339),
			c.CreatedAt.Format(time.RFC3339))
	}

	if overall != workflow.StateUnset && c.LegacyStatus != "" && c.LegacyStatus != workflow.LegacyCancelled {
		if want := workflow.LegacyStatusFor(overall); c.LegacyStatus != want {
			add("stato", ErrLegacyStatus, "%q does not match overall %s (want %q)", c.LegacyStatus, overall, want)
		}
	}

	return errs
}

var branchKeys = map[workflow.Area]string{
	workflow.AreaBO:  "bo",
	workflow.AreaBOF: "bof",
	workflow.AreaBOU: "bou",
}

// branchAllows reports whether s may be stored for branch a: the shared
// DRAFT and NEW codes or one of the branch's own sub-states.
func branchAllows(a workflow.Area, s workflow.State) bool {
	if s == workflow.StateDraft || s == workflow.StateNew {
		return true
	}
	own, ok := s.Branch()
	return ok && own == a
}

func areaFlag(c *workflow.Case, a workflow.Area) *bool {
	switch a {
	case workflow.AreaBOF:
		return c.HasFinanziamento
	case workflow.AreaBOU:
		return c.HasPermuta
	default:
		return nil
	}
}
