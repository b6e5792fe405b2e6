package testutil

import "github.com/roach88/fascicolo/internal/workflow"

// Fixture users, one per role. Those also in the demo directory share
// its ids.
var (
	Salesperson  = workflow.User{ID: "ven", Username: "venditore", Name: "Venditore", Role: workflow.RoleSalesperson}
	Salesperson2 = workflow.User{ID: "ven2", Username: "venditore2", Name: "Altro venditore", Role: workflow.RoleSalesperson}
	BO           = workflow.User{ID: "bo", Username: "bo", Name: "BackOffice Anagrafico", Role: workflow.RoleBO}
	BOF          = workflow.User{ID: "bof", Username: "bof", Name: "BackOffice Finanziario", Role: workflow.RoleBOF}
	BOU          = workflow.User{ID: "bou", Username: "bou", Name: "BackOffice Permuta", Role: workflow.RoleBOU}
	Delivery     = workflow.User{ID: "del", Username: "consegna", Name: "Operatore consegna", Role: workflow.RoleDeliveryOperator}
	Control      = workflow.User{ID: "vrc", Username: "controllo", Name: "Controllo consegna", Role: workflow.RoleDeliveryControl}
	Admin        = workflow.User{ID: "admin", Username: "admin", Name: "Admin", Role: workflow.RoleAdmin}
)

// Step is one action performed by one user.
type Step struct {
	Action workflow.Action
	Actor  workflow.User
}

// DraftCase returns a DRAFT case created at Epoch.
func DraftCase(id string, hasFinanziamento, hasPermuta bool) *workflow.Case {
	return workflow.NewDraft(id, "2026/"+id, hasFinanziamento, hasPermuta, Epoch)
}

// Intake takes a draft and sends it to back-office validation.
func Intake() []Step {
	return []Step{
		{workflow.ActionTakeComm, Salesperson},
		{workflow.ActionSendAsComm, Salesperson},
	}
}

// ValidateAll takes and validates every active branch of c.
// c must already be past intake.
func ValidateAll(c *workflow.Case) []Step {
	var steps []Step
	for _, u := range []workflow.User{BO, BOF, BOU} {
		area, _ := u.Role.BackOfficeArea()
		if !workflow.AreaActive(c, area) {
			continue
		}
		take, _ := workflow.TakeActionFor(u.Role)
		steps = append(steps, Step{take, u}, Step{validateAction(area), u})
	}
	return steps
}

// Deliver runs delivery and delivery control on an approved case.
func Deliver() []Step {
	return []Step{
		{workflow.ActionDeliveryTake, Delivery},
		{workflow.ActionDeliverySendToVRC, Delivery},
		{workflow.ActionVRCTake, Control},
		{workflow.ActionVRCValidate, Control},
	}
}

func validateAction(a workflow.Area) workflow.Action {
	switch a {
	case workflow.AreaBOF:
		return workflow.ActionValidateBOF
	case workflow.AreaBOU:
		return workflow.ActionValidateBOU
	default:
		return workflow.ActionValidateBO
	}
}
