package workflow

// Can reports whether user may perform action on a case seen through ctx.
// Unmatched combinations are denied.
func Can(user User, action Action, ctx Context) bool {
	switch user.Role {
	case RoleAdmin:
		return action == ActionManageDocRules
	case RoleAdministrative:
		switch action {
		case ActionDashboardView, ActionViewAll, ActionInvoiceUpload:
			return true
		}
		return false
	case RoleSupervisor:
		switch action {
		case ActionDashboardView, ActionViewAll, ActionReassignBackOffice:
			return true
		}
		return false
	}

	switch action {
	case ActionDashboardView:
		return user.Role.Valid()
	case ActionViewAll:
		switch user.Role {
		case RoleBO, RoleBOF, RoleBOU, RoleDeliveryOperator, RoleDeliveryControl:
			return true
		}
		return false
	case ActionViewOwn:
		return user.Role == RoleSalesperson
	}

	switch user.Role {
	case RoleSalesperson:
		return canSalesperson(user, action, ctx)
	case RoleBO, RoleBOF, RoleBOU:
		return canBackOffice(user, action, ctx)
	case RoleDeliveryOperator:
		return canDeliveryOperator(action, ctx)
	case RoleDeliveryControl:
		return canDeliveryControl(action, ctx)
	default:
		return false
	}
}

func canSalesperson(user User, action Action, ctx Context) bool {
	switch action {
	case ActionTakeComm:
		return ctx.State == StateDraft
	case ActionEditOwn, ActionSendAsComm:
		if !IsOwner(ctx.OwnerID, user.ID) {
			return false
		}
		return ctx.State == StateNew || ctx.State.IsNeedsRevision()
	case ActionRequestReopen:
		return ctx.State == StateApproved && IsOwner(ctx.OwnerID, user.ID)
	default:
		return false
	}
}

func canBackOffice(user User, action Action, ctx Context) bool {
	area, ok := user.Role.BackOfficeArea()
	if !ok || !ctx.areaActive(area) {
		return false
	}
	if action == ActionReopen {
		return ctx.Overall == StateApproved
	}
	ba, ok := branchActions[action]
	if !ok || ba.area != area {
		return false
	}
	set, _ := BranchStates(area)
	switch ba.verb {
	case verbTake:
		return ctx.State == set.AwaitingPickup
	case verbValidate, verbRequestReview:
		return ctx.State == set.InReview
	default:
		return false
	}
}

func canDeliveryOperator(action Action, ctx Context) bool {
	switch action {
	case ActionDeliveryTake:
		return ctx.State == StateApproved
	case ActionDeliveryUpload, ActionDeliverySendToVRC:
		return ctx.State == StateReadyForDelivery || ctx.State == StateDeliveryNeedsRevision
	default:
		return false
	}
}

func canDeliveryControl(action Action, ctx Context) bool {
	switch action {
	case ActionVRCTake:
		return ctx.State == StateAwaitingDeliveryControlPickup
	case ActionVRCValidate, ActionVRCRequestFix:
		return ctx.State == StateDeliveryInReview
	default:
		return false
	}
}
