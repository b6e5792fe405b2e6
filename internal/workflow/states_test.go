package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStates_EveryCodeHasExactlyOneGroup(t *testing.T) {
	counts := map[Group]int{}
	seen := map[State]bool{}
	for _, s := range AllStates() {
		require.False(t, seen[s], "duplicate state %s", s)
		seen[s] = true

		g := s.Group()
		assert.NotEqual(t, GroupUnknown, g, "state %s has no group", s)
		counts[g]++
	}

	assert.Len(t, seen, 20)
	assert.Equal(t, 1, counts[GroupDraft])
	assert.Equal(t, 1, counts[GroupIntake])
	assert.Equal(t, 4, counts[GroupValidationBO])
	assert.Equal(t, 4, counts[GroupValidationBOF])
	assert.Equal(t, 4, counts[GroupValidationBOU])
	assert.Equal(t, 1, counts[GroupApproved])
	assert.Equal(t, 4, counts[GroupDelivery])
	assert.Equal(t, 1, counts[GroupDelivered])
}

func TestStates_BranchSetsMatchGroups(t *testing.T) {
	for _, b := range Branches {
		set, ok := BranchStates(b)
		require.True(t, ok)
		for _, s := range []State{set.AwaitingPickup, set.InReview, set.NeedsRevision, set.Validated} {
			area, ok := s.Branch()
			require.True(t, ok, "state %s", s)
			assert.Equal(t, b, area)
			assert.True(t, s.IsBackOfficeValidation())
		}
		assert.True(t, set.NeedsRevision.IsNeedsRevision())
		assert.True(t, set.Validated.IsValidated())
	}

	_, ok := BranchStates(AreaDelivery)
	assert.False(t, ok)
}

func TestStates_Predicates(t *testing.T) {
	assert.True(t, StateReadyForDelivery.IsDelivery())
	assert.True(t, StateDeliveryNeedsRevision.IsDelivery())
	assert.False(t, StateDeliveryNeedsRevision.IsNeedsRevision())
	assert.False(t, StateApproved.IsDelivery())
	assert.False(t, StateDelivered.IsDelivery())
	assert.False(t, StateApproved.IsBackOfficeValidation())
}

func TestParseState(t *testing.T) {
	s, err := ParseState("S17")
	require.NoError(t, err)
	assert.Equal(t, StateValidatedBOF, s)

	_, err = ParseState("S20")
	assert.Error(t, err)

	_, err = ParseState("")
	assert.Error(t, err)
}

func TestState_Label(t *testing.T) {
	for _, s := range AllStates() {
		assert.NotEqual(t, string(s), s.Label(), "state %s has no label", s)
	}
	assert.Equal(t, "Fase finale", StateReadyForDelivery.Label())
	assert.Equal(t, "—", StateUnset.Label())
}

func TestActions_ClosedSet(t *testing.T) {
	all := AllActions()
	assert.Len(t, all, 26)
	for _, a := range all {
		parsed, err := ParseAction(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
	_, err := ParseAction("FASCICOLO.DELETE")
	assert.Error(t, err)

	assert.True(t, ActionVRCValidate.IsTransition())
	assert.False(t, ActionDeliveryUpload.IsTransition())
}

func TestTakeActionFor(t *testing.T) {
	tests := []struct {
		role Role
		want Action
		ok   bool
	}{
		{RoleSalesperson, ActionTakeComm, true},
		{RoleBO, ActionTakeBO, true},
		{RoleBOF, ActionTakeBOF, true},
		{RoleBOU, ActionTakeBOU, true},
		{RoleDeliveryOperator, ActionDeliveryTake, true},
		{RoleDeliveryControl, ActionVRCTake, true},
		{RoleAdmin, "", false},
		{RoleSupervisor, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			got, ok := TakeActionFor(tt.role)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
