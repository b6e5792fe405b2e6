package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/roach88/fascicolo/internal/workflow"
)

// actorFlags identifies the user a command acts as: a demo username, or
// an explicit id and role.
type actorFlags struct {
	As     string
	UserID string
	Role   string
	Name   string
}

func (a *actorFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&a.As, "as", "", "username; demo users resolve to their id and role")
	fs.StringVar(&a.UserID, "user-id", "", "explicit user id (requires --role)")
	fs.StringVar(&a.Role, "role", "", "role for --user-id, e.g. BOF")
	fs.StringVar(&a.Name, "name", "", "display name for --user-id")
}

// resolve returns the acting user.
func (a actorFlags) resolve() (workflow.User, error) {
	if a.UserID != "" {
		role, err := workflow.ParseRole(strings.ToUpper(strings.TrimSpace(a.Role)))
		if err != nil {
			return workflow.User{}, fmt.Errorf("--user-id needs a valid --role: %w", err)
		}
		return workflow.User{ID: a.UserID, Username: a.UserID, Name: a.Name, Role: role}, nil
	}
	if u, ok := workflow.ResolveUser(a.As); ok {
		return u, nil
	}
	return workflow.User{}, fmt.Errorf("--as or --user-id is required")
}
