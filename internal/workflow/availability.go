package workflow

// phaseOwner reports whether the overall phase belongs to role for pickup.
func phaseOwner(overall State, role Role) bool {
	switch overall {
	case StateDraft:
		return role == RoleSalesperson
	case StateAwaitingPickupBO:
		_, ok := role.BackOfficeArea()
		return ok
	case StateApproved:
		return role == RoleDeliveryOperator
	case StateAwaitingDeliveryControlPickup:
		return role == RoleDeliveryControl
	default:
		return true
	}
}

// Available reports whether c sits in the pickup pool for user: the
// user's take action is allowed and the current phase belongs to the
// user's role.
func Available(c *Case, user User) bool {
	if c == nil {
		return false
	}
	take, ok := TakeActionFor(user.Role)
	if !ok {
		return false
	}
	if !phaseOwner(ResolveOverall(c), user.Role) {
		return false
	}
	return Can(user, take, BuildContext(c, user.Role))
}

// HoldsCase reports whether user currently works on c: the owner for a
// salesperson, the possessor of the role's area otherwise. Nobody holds
// a delivered case.
func HoldsCase(c *Case, user User) bool {
	if c == nil || user.ID == "" || ResolveOverall(c) == StateDelivered {
		return false
	}
	switch user.Role {
	case RoleSalesperson:
		return IsOwner(c.OwnerID, user.ID)
	case RoleBO, RoleBOF, RoleBOU:
		area, _ := user.Role.BackOfficeArea()
		return c.InCharge(area) == user.ID
	case RoleDeliveryOperator:
		return c.InChargeDelivery == user.ID
	case RoleDeliveryControl:
		return c.InChargeVRC == user.ID
	default:
		return false
	}
}
