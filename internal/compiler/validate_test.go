package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fascicolo/internal/testutil"
	"github.com/roach88/fascicolo/internal/workflow"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_CleanFlow(t *testing.T) {
	c := testutil.DraftCase("c1", true, true)
	var cases []*workflow.Case
	cases = append(cases, c)
	for _, st := range testutil.Intake() {
		c = workflow.Apply(c, st.Action, st.Actor, testutil.Epoch)
		cases = append(cases, c.Clone())
	}
	for i, c := range cases {
		c.ID = string(rune('a' + i))
	}
	assert.Empty(t, Validate(cases))
}

func TestValidate_DuplicateID(t *testing.T) {
	errs := Validate([]*workflow.Case{
		testutil.DraftCase("c1", false, false),
		testutil.DraftCase("c1", false, false),
	})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateCaseID, errs[0].Code)
	assert.Equal(t, "cases[1].id", errs[0].Field)
}

func TestValidate_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *workflow.Case)
		want   string
	}{
		{"branch mismatch", func(c *workflow.Case) { c.Workflow.BOF = workflow.StateInReviewBO }, ErrBranchStateMismatch},
		{"inactive branch", func(c *workflow.Case) { c.Workflow.BOU = workflow.StateNew }, ErrInactiveBranch},
		{"time order", func(c *workflow.Case) { c.UpdatedAt = c.CreatedAt.Add(-time.Minute) }, ErrTimeOrder},
		{"legacy status", func(c *workflow.Case) { c.LegacyStatus = workflow.LegacySigned }, ErrLegacyStatus},
		{"overall branch state", func(c *workflow.Case) { c.Workflow.Overall = workflow.StateInReviewBOF }, ErrOverallState},
		{"possessor outside review", func(c *workflow.Case) { c.InChargeBO = "bo" }, ErrInChargeState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testutil.DraftCase("c1", true, false)
			tt.mutate(c)
			errs := Validate([]*workflow.Case{c})
			assert.Contains(t, codes(errs), tt.want)
			for _, e := range errs {
				assert.Equal(t, "c1", e.CaseID)
			}
		})
	}
}

func TestValidate_CancelledLegacyStatusAllowed(t *testing.T) {
	c := testutil.DraftCase("c1", false, false)
	c.LegacyStatus = workflow.LegacyCancelled
	assert.Empty(t, Validate([]*workflow.Case{c}))
}

func TestValidate_FlaglessLegacyRecord(t *testing.T) {
	c := &workflow.Case{
		ID:           "old",
		LegacyStatus: workflow.LegacyApproving,
		CreatedAt:    testutil.Epoch,
		UpdatedAt:    testutil.Epoch,
	}
	assert.Empty(t, Validate([]*workflow.Case{c}))
}

func TestValidationError_Format(t *testing.T) {
	err := ValidationError{CaseID: "c1", Field: "stato", Message: "bad", Code: ErrLegacyStatus}
	assert.Equal(t, "[E105] case c1: stato: bad", err.Error())

	err = ValidationError{Field: "cases[0]", Message: "bad", Code: ErrDuplicateCaseID}
	assert.Equal(t, "[E101] cases[0]: bad", err.Error())
}
