package workflow

import "fmt"

// Action is a verb namespaced by domain (FASCICOLO., DELIVERY., VRC., ...).
type Action string

// Workflow transitions.
const (
	ActionTakeComm      Action = "FASCICOLO.TAKE_COMM"
	ActionSendAsComm    Action = "FASCICOLO.SEND_AS_COMM"
	ActionRequestReopen Action = "FASCICOLO.REQUEST_REOPEN"
	ActionReopen        Action = "FASCICOLO.REOPEN"

	ActionTakeBO  Action = "FASCICOLO.TAKE_BO"
	ActionTakeBOF Action = "FASCICOLO.TAKE_BOF"
	ActionTakeBOU Action = "FASCICOLO.TAKE_BOU"

	ActionValidateBO  Action = "FASCICOLO.VALIDATE_BO"
	ActionValidateBOF Action = "FASCICOLO.VALIDATE_BOF"
	ActionValidateBOU Action = "FASCICOLO.VALIDATE_BOU"

	ActionRequestReviewBO  Action = "FASCICOLO.REQUEST_REVIEW_BO"
	ActionRequestReviewBOF Action = "FASCICOLO.REQUEST_REVIEW_BOF"
	ActionRequestReviewBOU Action = "FASCICOLO.REQUEST_REVIEW_BOU"

	ActionDeliveryTake      Action = "DELIVERY.TAKE"
	ActionDeliverySendToVRC Action = "DELIVERY.SEND_TO_VRC"

	ActionVRCTake       Action = "VRC.TAKE"
	ActionVRCValidate   Action = "VRC.VALIDATE"
	ActionVRCRequestFix Action = "VRC.REQUEST_FIX"
)

// Oracle-only actions. They gate affordances but never move a case.
const (
	ActionManageDocRules     Action = "ADMIN.DOC_RULES_MANAGE"
	ActionDashboardView      Action = "DASHBOARD.VIEW"
	ActionViewAll            Action = "FASCICOLO.VIEW_ALL"
	ActionViewOwn            Action = "FASCICOLO.VIEW_OWN"
	ActionEditOwn            Action = "FASCICOLO.EDIT_OWN"
	ActionInvoiceUpload      Action = "FATTURA.UPLOAD"
	ActionReassignBackOffice Action = "BACKOFFICE.REASSIGN"
	ActionDeliveryUpload     Action = "DELIVERY.UPLOAD"
)

var transitionActions = []Action{
	ActionTakeComm,
	ActionSendAsComm,
	ActionRequestReopen,
	ActionReopen,
	ActionTakeBO, ActionTakeBOF, ActionTakeBOU,
	ActionValidateBO, ActionValidateBOF, ActionValidateBOU,
	ActionRequestReviewBO, ActionRequestReviewBOF, ActionRequestReviewBOU,
	ActionDeliveryTake,
	ActionDeliverySendToVRC,
	ActionVRCTake,
	ActionVRCValidate,
	ActionVRCRequestFix,
}

var oracleActions = []Action{
	ActionManageDocRules,
	ActionDashboardView,
	ActionViewAll,
	ActionViewOwn,
	ActionEditOwn,
	ActionInvoiceUpload,
	ActionReassignBackOffice,
	ActionDeliveryUpload,
}

// AllActions returns the closed action set: transitions first.
func AllActions() []Action {
	out := make([]Action, 0, len(transitionActions)+len(oracleActions))
	out = append(out, transitionActions...)
	return append(out, oracleActions...)
}

// TransitionActions returns the actions Apply knows how to execute.
func TransitionActions() []Action {
	out := make([]Action, len(transitionActions))
	copy(out, transitionActions)
	return out
}

// ParseAction validates an action code.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// Valid reports whether a belongs to the closed action set.
func (a Action) Valid() bool {
	return a.IsTransition() || a.isOracleOnly()
}

// IsTransition reports whether Apply can move a case with a.
func (a Action) IsTransition() bool {
	for _, t := range transitionActions {
		if a == t {
			return true
		}
	}
	return false
}

func (a Action) isOracleOnly() bool {
	for _, o := range oracleActions {
		if a == o {
			return true
		}
	}
	return false
}

// branchAction describes a per-branch take/validate/review verb.
type branchAction struct {
	area Area
	verb branchVerb
}

type branchVerb int

const (
	verbTake branchVerb = iota + 1
	verbValidate
	verbRequestReview
)

var branchActions = map[Action]branchAction{
	ActionTakeBO:           {AreaBO, verbTake},
	ActionTakeBOF:          {AreaBOF, verbTake},
	ActionTakeBOU:          {AreaBOU, verbTake},
	ActionValidateBO:       {AreaBO, verbValidate},
	ActionValidateBOF:      {AreaBOF, verbValidate},
	ActionValidateBOU:      {AreaBOU, verbValidate},
	ActionRequestReviewBO:  {AreaBO, verbRequestReview},
	ActionRequestReviewBOF: {AreaBOF, verbRequestReview},
	ActionRequestReviewBOU: {AreaBOU, verbRequestReview},
}

// TakeActionFor returns the pickup action of a role, if it has one.
func TakeActionFor(r Role) (Action, bool) {
	switch r {
	case RoleSalesperson:
		return ActionTakeComm, true
	case RoleBO:
		return ActionTakeBO, true
	case RoleBOF:
		return ActionTakeBOF, true
	case RoleBOU:
		return ActionTakeBOU, true
	case RoleDeliveryOperator:
		return ActionDeliveryTake, true
	case RoleDeliveryControl:
		return ActionVRCTake, true
	default:
		return "", false
	}
}
