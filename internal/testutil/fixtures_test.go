package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fascicolo/internal/workflow"
)

func run(t *testing.T, c *workflow.Case, steps []Step) *workflow.Case {
	t.Helper()
	clock := NewStepClock(Epoch, time.Minute)
	for _, s := range steps {
		next := workflow.Apply(c, s.Action, s.Actor, clock.Now())
		require.NotSame(t, c, next, "%s by %s had no effect", s.Action, s.Actor.Role)
		c = next
	}
	return c
}

func TestFixtures_FullLifecycle(t *testing.T) {
	for _, tc := range []struct {
		name      string
		fin, perm bool
		steps     int
	}{
		{"bo only", false, false, 2},
		{"with financing", true, false, 4},
		{"all branches", true, true, 6},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := run(t, DraftCase("F-1", tc.fin, tc.perm), Intake())

			validate := ValidateAll(c)
			assert.Len(t, validate, tc.steps)

			c = run(t, c, validate)
			assert.Equal(t, workflow.StateApproved, c.Workflow.Overall)

			c = run(t, c, Deliver())
			assert.Equal(t, workflow.StateDelivered, c.Workflow.Overall)
		})
	}
}

func TestFixtures_UsersMatchDemoDirectory(t *testing.T) {
	for _, u := range []workflow.User{Salesperson, BO, BOF, BOU, Delivery, Control, Admin} {
		got, ok := workflow.ResolveUser(u.Username)
		require.True(t, ok)
		assert.Equal(t, u, got)
	}
}

func TestDraftCase(t *testing.T) {
	c := DraftCase("F-7", true, false)
	assert.Equal(t, "2026/F-7", c.Number)
	assert.Equal(t, workflow.StateDraft, c.Workflow.Overall)
	assert.Equal(t, Epoch, c.CreatedAt)
}
