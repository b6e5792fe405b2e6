package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

var (
	ven   = User{ID: "ven", Username: "venditore", Name: "Venditore", Role: RoleSalesperson}
	ven2  = User{ID: "ven2", Username: "venditore2", Name: "Altro venditore", Role: RoleSalesperson}
	boU   = User{ID: "bo", Username: "bo", Name: "BackOffice Anagrafico", Role: RoleBO}
	bofU  = User{ID: "bof", Username: "bof", Name: "BackOffice Finanziario", Role: RoleBOF}
	bouU  = User{ID: "bou", Username: "bou", Name: "BackOffice Permuta", Role: RoleBOU}
	delU  = User{ID: "del", Username: "consegna", Name: "Operatore consegna", Role: RoleDeliveryOperator}
	vrcU  = User{ID: "vrc", Username: "controllo", Name: "Controllo consegna", Role: RoleDeliveryControl}
	admU  = User{ID: "admin", Name: "Admin", Role: RoleAdmin}
	supU  = User{ID: "sup", Name: "Supervisore", Role: RoleSupervisor}
	ammU  = User{ID: "amm", Name: "Amministrativo", Role: RoleAdministrative}
	noone = User{ID: "ghost"}
)

var testUsers = []User{ven, ven2, boU, bofU, bouU, delU, vrcU, admU, supU, ammU, noone}

type step struct {
	action Action
	actor  User
}

// mustApply runs steps in order and fails if any of them is a no-op.
func mustApply(t *testing.T, c *Case, steps ...step) *Case {
	t.Helper()
	for i, s := range steps {
		next := Apply(c, s.action, s.actor, testNow.Add(time.Duration(i+1)*time.Minute))
		require.NotSame(t, c, next, "step %d: %s by %s had no effect", i, s.action, s.actor.Role)
		c = next
	}
	return c
}

func intake() []step {
	return []step{{ActionTakeComm, ven}, {ActionSendAsComm, ven}}
}

func validateAll(c *Case) []step {
	var steps []step
	if AreaActive(c, AreaBO) {
		steps = append(steps, step{ActionTakeBO, boU}, step{ActionValidateBO, boU})
	}
	if AreaActive(c, AreaBOF) {
		steps = append(steps, step{ActionTakeBOF, bofU}, step{ActionValidateBOF, bofU})
	}
	if AreaActive(c, AreaBOU) {
		steps = append(steps, step{ActionTakeBOU, bouU}, step{ActionValidateBOU, bouU})
	}
	return steps
}

func approvedCase(t *testing.T, fin, perm bool) *Case {
	t.Helper()
	c := NewDraft("F-1", "2026/00001", fin, perm, testNow)
	c = mustApply(t, c, intake()...)
	c = mustApply(t, c, validateAll(c)...)
	require.Equal(t, StateApproved, c.Workflow.Overall)
	return c
}

// lifecycle returns every intermediate record of a full run, review and
// fix round-trips included.
func lifecycle(t *testing.T) []*Case {
	t.Helper()
	c := NewDraft("F-9", "2026/00009", true, true, testNow)
	out := []*Case{c}
	steps := []step{
		{ActionTakeComm, ven},
		{ActionSendAsComm, ven},
		{ActionTakeBO, boU},
		{ActionRequestReviewBO, boU},
		{ActionSendAsComm, ven},
		{ActionTakeBO, boU},
		{ActionValidateBO, boU},
		{ActionTakeBOF, bofU},
		{ActionValidateBOF, bofU},
		{ActionTakeBOU, bouU},
		{ActionValidateBOU, bouU},
		{ActionRequestReopen, ven},
		{ActionReopen, bouU},
		{ActionValidateBOU, bouU},
		{ActionDeliveryTake, delU},
		{ActionDeliverySendToVRC, delU},
		{ActionVRCTake, vrcU},
		{ActionVRCRequestFix, vrcU},
		{ActionDeliverySendToVRC, delU},
		{ActionVRCValidate, vrcU},
	}
	for _, s := range steps {
		c = mustApply(t, c, s)
		out = append(out, c)
	}
	return out
}

func countEvents(c *Case, event string) int {
	n := 0
	for _, e := range c.Timeline {
		if e.Event == event {
			n++
		}
	}
	return n
}
