package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_FinancedWithoutTradeInApproves(t *testing.T) {
	c := NewDraft("F-1", "2026/00001", true, false, testNow)

	c = mustApply(t, c,
		step{ActionTakeComm, ven},
		step{ActionSendAsComm, ven},
		step{ActionTakeBO, boU},
		step{ActionValidateBO, boU},
	)
	assert.Equal(t, StateAwaitingPickupBO, c.Workflow.Overall, "BOF still pending")

	c = mustApply(t, c,
		step{ActionTakeBOF, bofU},
		step{ActionValidateBOF, bofU},
	)

	assert.Equal(t, StateApproved, c.Workflow.Overall)
	assert.Equal(t, StateValidatedBO, c.Workflow.BO)
	assert.Equal(t, StateValidatedBOF, c.Workflow.BOF)
	assert.Equal(t, StateUnset, c.Workflow.BOU)
	assert.GreaterOrEqual(t, c.Progress, 85)
	assert.Equal(t, LegacySigned, c.LegacyStatus)

	last := c.Timeline[len(c.Timeline)-1]
	assert.Equal(t, SystemActor, last.Actor)
	assert.Equal(t, EventApproved, last.Event)
}

func TestApply_OnlyBOActiveApprovesOnValidateBO(t *testing.T) {
	c := NewDraft("F-2", "2026/00002", false, false, testNow)
	c = mustApply(t, c, intake()...)
	c = mustApply(t, c, step{ActionTakeBO, boU}, step{ActionValidateBO, boU})

	assert.Equal(t, StateApproved, c.Workflow.Overall)
	assert.Equal(t, StateUnset, c.Workflow.BOF)
	assert.Equal(t, StateUnset, c.Workflow.BOU)
}

func TestApply_FanInIsIdempotent(t *testing.T) {
	c := approvedCase(t, true, true)
	require.Equal(t, 1, countEvents(c, EventApproved))

	again := Apply(c, ActionValidateBOU, bouU, testNow)
	assert.Same(t, c, again)
	assert.Equal(t, 1, countEvents(again, EventApproved))
}

func TestApply_BranchIndependence(t *testing.T) {
	c := NewDraft("F-3", "2026/00003", true, true, testNow)
	c = mustApply(t, c, intake()...)
	c = mustApply(t, c, step{ActionTakeBO, boU})

	before := c.Workflow
	c = mustApply(t, c, step{ActionTakeBOF, bofU}, step{ActionValidateBOF, bofU})

	assert.Equal(t, before.BO, c.Workflow.BO)
	assert.Equal(t, before.BOU, c.Workflow.BOU)
	assert.Equal(t, StateValidatedBOF, c.Workflow.BOF)
	assert.Equal(t, StateAwaitingPickupBO, c.Workflow.Overall)
	assert.Equal(t, "bo", c.InChargeBO)
	assert.Empty(t, c.InChargeBOF)
}

func TestApply_TakeCommResetsActiveBranches(t *testing.T) {
	c := NewDraft("F-4", "2026/00004", false, true, testNow)
	c = mustApply(t, c, step{ActionTakeComm, ven})

	assert.Equal(t, StateNew, c.Workflow.Overall)
	assert.Equal(t, StateNew, c.Workflow.BO)
	assert.Equal(t, StateUnset, c.Workflow.BOF)
	assert.Equal(t, StateNew, c.Workflow.BOU)
	assert.Equal(t, "ven", c.OwnerID)
	assert.Equal(t, "Venditore", c.Assignee)
	assert.Equal(t, ProgressTaken, c.Progress)
	assert.Equal(t, LegacyCompiling, c.LegacyStatus)
	require.Len(t, c.Timeline, 1)
	assert.Equal(t, "Presa in carico (venditore)", c.Timeline[0].Event)
}

func TestApply_ReviewRoundTrip(t *testing.T) {
	c := NewDraft("F-5", "2026/00005", true, true, testNow)
	c = mustApply(t, c, intake()...)
	c = mustApply(t, c, step{ActionTakeBO, boU}, step{ActionRequestReviewBO, boU})

	assert.Equal(t, StateNeedsRevisionBO, c.Workflow.BO)
	assert.Empty(t, c.InChargeBO)
	assert.Equal(t, "bo", c.LastInChargeBO)
	assert.Equal(t, StateAwaitingPickupBO, c.Workflow.Overall)

	ctx := BuildContext(c, RoleSalesperson)
	assert.Equal(t, StateNeedsRevisionBO, ctx.State)

	c = mustApply(t, c, step{ActionSendAsComm, ven})
	assert.Equal(t, StateAwaitingPickupBO, c.Workflow.BO)
	assert.Equal(t, StateAwaitingPickupBOF, c.Workflow.BOF)
	assert.Equal(t, StateAwaitingPickupBOU, c.Workflow.BOU)
}

func TestApply_DeliveryFixReturnsToSameControlAgent(t *testing.T) {
	c := approvedCase(t, false, false)

	c = mustApply(t, c, step{ActionDeliveryTake, delU})
	assert.Equal(t, StateReadyForDelivery, c.Workflow.Overall)
	assert.Equal(t, "del", c.InChargeDelivery)
	assert.Equal(t, ProgressDelivery, c.Progress)

	c = mustApply(t, c, step{ActionDeliverySendToVRC, delU})
	assert.Equal(t, StateAwaitingDeliveryControlPickup, c.Workflow.Overall)
	assert.Empty(t, c.InChargeVRC)
	assert.Empty(t, c.InChargeDelivery)
	assert.True(t, c.DeliverySentToVRC)

	c = mustApply(t, c, step{ActionVRCTake, vrcU})
	captured := c.LastInChargeVRC
	require.Equal(t, "vrc", captured)

	c = mustApply(t, c, step{ActionVRCRequestFix, vrcU})
	assert.Equal(t, StateDeliveryNeedsRevision, c.Workflow.Overall)
	assert.Empty(t, c.InChargeVRC)
	assert.Equal(t, "del", c.InChargeDelivery)
	assert.False(t, c.DeliverySentToVRC)

	c = mustApply(t, c, step{ActionDeliverySendToVRC, delU})
	assert.Equal(t, StateDeliveryInReview, c.Workflow.Overall)
	assert.Equal(t, captured, c.InChargeVRC)
	assert.Empty(t, c.InChargeDelivery)
	assert.Equal(t, "Reinviato a Controllo consegna (ritorno diretto)", c.Timeline[len(c.Timeline)-1].Event)

	c = mustApply(t, c, step{ActionVRCValidate, vrcU})
	assert.Equal(t, StateDelivered, c.Workflow.Overall)
	assert.Equal(t, 100, c.Progress)
	assert.Equal(t, LegacySigned, c.LegacyStatus)
}

func TestApply_ReopenByBOF(t *testing.T) {
	c := approvedCase(t, true, true)

	c = mustApply(t, c, step{ActionRequestReopen, ven})
	assert.True(t, c.ReopenProposed)
	assert.Equal(t, StateApproved, c.Workflow.Overall)
	require.Len(t, c.Notes, 1)
	assert.Equal(t, NoteKindReopen, c.Notes[0].Kind)

	c = mustApply(t, c, step{ActionReopen, bofU})

	assert.Equal(t, StateAwaitingPickupBO, c.Workflow.Overall)
	assert.Equal(t, StateValidatedBO, c.Workflow.BO)
	assert.Equal(t, StateInReviewBOF, c.Workflow.BOF)
	assert.Equal(t, StateValidatedBOU, c.Workflow.BOU)
	assert.Equal(t, "bof", c.InChargeBOF)
	assert.Equal(t, "bof", c.LastInChargeBOF)
	assert.Empty(t, c.InChargeBO)
	assert.Empty(t, c.InChargeBOU)
	assert.False(t, c.ReopenProposed)
	assert.True(t, c.ReopenCycle)
	assert.Equal(t, ProgressReopenMax, c.Progress)
	require.Len(t, c.Notes, 2)
	assert.NotEqual(t, c.Notes[0].ID, c.Notes[1].ID)

	c = mustApply(t, c, step{ActionValidateBOF, bofU})
	assert.Equal(t, StateApproved, c.Workflow.Overall)
	assert.Equal(t, 2, countEvents(c, EventApproved))
}

func TestApply_ReopenProgressBand(t *testing.T) {
	tests := []struct {
		before int
		want   int
	}{
		{before: 0, want: 55},
		{before: 60, want: 60},
		{before: 85, want: 75},
		{before: 100, want: 75},
	}
	for _, tt := range tests {
		c := approvedCase(t, false, false)
		c.Progress = tt.before
		got := mustApply(t, c, step{ActionReopen, boU})
		assert.Equal(t, tt.want, got.Progress, "progress %d", tt.before)
	}
}

func TestApply_NoteIDsAreDeterministic(t *testing.T) {
	a := mustApply(t, approvedCase(t, false, false), step{ActionRequestReopen, ven})
	b := mustApply(t, approvedCase(t, false, false), step{ActionRequestReopen, ven})
	require.Len(t, a.Notes, 1)
	assert.Equal(t, a.Notes[0].ID, b.Notes[0].ID)
}

func TestApply_DeniedIsStrictNoOp(t *testing.T) {
	for _, c := range lifecycle(t) {
		snapshot := c.Clone()
		for _, u := range testUsers {
			for _, a := range AllActions() {
				if Can(u, a, BuildContext(c, u.Role)) {
					continue
				}
				got := Apply(c, a, u, testNow)
				assert.Same(t, c, got, "%s by %q on %s", a, u.Role, c.Workflow.Overall)
				assert.Equal(t, snapshot, c)
			}
		}
	}
}

func TestApply_NeverMutatesInput(t *testing.T) {
	for _, c := range lifecycle(t) {
		snapshot := c.Clone()
		for _, u := range testUsers {
			for _, a := range TransitionActions() {
				got := Apply(c, a, u, testNow)
				require.Equal(t, snapshot, c, "%s by %q mutated its input", a, u.Role)
				if got == c {
					continue
				}
				actorEntries := 0
				for _, e := range got.Timeline[len(c.Timeline):] {
					if e.Actor != SystemActor {
						actorEntries++
					}
				}
				assert.Equal(t, 1, actorEntries, "%s by %q", a, u.Role)
				assert.Equal(t, testNow, got.UpdatedAt)
			}
		}
	}
}

func TestApply_OwnerSetOnlyByTakeComm(t *testing.T) {
	cases := lifecycle(t)
	for i := 2; i < len(cases); i++ {
		assert.Equal(t, "ven", cases[i].OwnerID, "record %d", i)
	}

	intaken := cases[1]
	got := Apply(intaken, ActionTakeComm, ven2, testNow)
	assert.Same(t, intaken, got)
}

func TestApply_MissingRoleIsNoOp(t *testing.T) {
	c := approvedCase(t, true, true)
	got := Apply(c, ActionReopen, User{ID: "x", Name: "X"}, testNow)
	assert.Same(t, c, got)
}

func TestApply_OracleOnlyActionIsNoOp(t *testing.T) {
	c := approvedCase(t, false, false)
	got := Apply(c, ActionDeliveryUpload, delU, testNow)
	assert.Same(t, c, got)
}

func TestApply_LegacyRecordOpensEveryBranch(t *testing.T) {
	c := &Case{ID: "F-L", LegacyStatus: LegacyCompiling, OwnerID: "ven"}

	c = mustApply(t, c, step{ActionSendAsComm, ven})

	assert.Equal(t, StateAwaitingPickupBO, c.Workflow.Overall)
	assert.Equal(t, StateAwaitingPickupBO, c.Workflow.BO)
	assert.Equal(t, StateAwaitingPickupBOF, c.Workflow.BOF)
	assert.Equal(t, StateAwaitingPickupBOU, c.Workflow.BOU)
	assert.Equal(t, LegacyApproving, c.LegacyStatus)
}
