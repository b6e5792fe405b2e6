package workflow

import "fmt"

// Role is the single role held by a user.
type Role string

const (
	RoleAdmin            Role = "ADMIN"
	RoleAdministrative   Role = "AMMINISTRATIVO"
	RoleSupervisor       Role = "RESPONSABILE"
	RoleSalesperson      Role = "COMMERCIALE"
	RoleBO               Role = "BO"
	RoleBOF              Role = "BOF"
	RoleBOU              Role = "BOU"
	RoleDeliveryOperator Role = "CONSEGNATORE"
	RoleDeliveryControl  Role = "VRC"
)

var allRoles = []Role{
	RoleAdmin,
	RoleAdministrative,
	RoleSupervisor,
	RoleSalesperson,
	RoleBO,
	RoleBOF,
	RoleBOU,
	RoleDeliveryOperator,
	RoleDeliveryControl,
}

// AllRoles returns every role.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole validates a role code.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// BackOfficeArea returns the validation branch a back-office role works on.
func (r Role) BackOfficeArea() (Area, bool) {
	switch r {
	case RoleBO:
		return AreaBO, true
	case RoleBOF:
		return AreaBOF, true
	case RoleBOU:
		return AreaBOU, true
	default:
		return "", false
	}
}

// Area is a possession area. The first three are validation branches.
type Area string

const (
	AreaBO       Area = "BO"
	AreaBOF      Area = "BOF"
	AreaBOU      Area = "BOU"
	AreaDelivery Area = "DELIVERY"
	AreaVRC      Area = "VRC"
)

// Branches lists the validation branches in fixed priority order.
var Branches = []Area{AreaBO, AreaBOF, AreaBOU}

// IsBranch reports whether a is a back-office validation branch.
func (a Area) IsBranch() bool {
	return a == AreaBO || a == AreaBOF || a == AreaBOU
}

// User is an authenticated user. It doubles as the actor of a transition.
type User struct {
	ID       string `json:"id" yaml:"id"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Role     Role   `json:"role" yaml:"role"`
}

// DisplayName is the name written in timeline entries.
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Role != "":
		return string(u.Role)
	default:
		return "Utente"
	}
}
