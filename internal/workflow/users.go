package workflow

import "strings"

var demoUsers = []User{
	{ID: "admin", Username: "admin", Name: "Admin", Role: RoleAdmin},
	{ID: "sup", Username: "supervisore", Name: "Supervisore", Role: RoleSupervisor},
	{ID: "ven", Username: "venditore", Name: "Venditore", Role: RoleSalesperson},
	{ID: "bo", Username: "bo", Name: "BackOffice Anagrafico", Role: RoleBO},
	{ID: "bof", Username: "bof", Name: "BackOffice Finanziario", Role: RoleBOF},
	{ID: "bou", Username: "bou", Name: "BackOffice Permuta", Role: RoleBOU},
	{ID: "del", Username: "consegna", Name: "Operatore consegna", Role: RoleDeliveryOperator},
	{ID: "vrc", Username: "controllo", Name: "Controllo consegna", Role: RoleDeliveryControl},
}

// DemoUsers returns the built-in user directory.
func DemoUsers() []User {
	out := make([]User, len(demoUsers))
	copy(out, demoUsers)
	return out
}

var usernameRoles = map[string]Role{
	"admin":          RoleAdmin,
	"amministrativo": RoleAdministrative,
	"responsabile":   RoleSupervisor,
	"supervisore":    RoleSupervisor,
	"commerciale":    RoleSalesperson,
	"venditore":      RoleSalesperson,
	"backoffice":     RoleBO,
	"bo":             RoleBO,
	"bof":            RoleBOF,
	"finanziario":    RoleBOF,
	"bou":            RoleBOU,
	"usato":          RoleBOU,
	"consegnatore":   RoleDeliveryOperator,
	"consegna":       RoleDeliveryOperator,
	"vrc":            RoleDeliveryControl,
	"verificatore":   RoleDeliveryControl,
}

// RoleForUsername guesses a role from a username. Unknown names are
// salespeople.
func RoleForUsername(username string) Role {
	if r, ok := usernameRoles[strings.ToLower(strings.TrimSpace(username))]; ok {
		return r
	}
	return RoleSalesperson
}

// ResolveUser returns the demo user with that username, or a new user
// whose id is the lowercased username and whose role is guessed from it.
// The second result is false for an empty username.
func ResolveUser(username string) (User, bool) {
	clean := strings.TrimSpace(username)
	if clean == "" {
		return User{}, false
	}
	for _, u := range demoUsers {
		if strings.EqualFold(u.Username, clean) {
			u.Username = clean
			return u, true
		}
	}
	return User{
		ID:       strings.ToLower(clean),
		Username: clean,
		Name:     clean,
		Role:     RoleForUsername(clean),
	}, true
}
