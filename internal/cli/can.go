package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fascicolo/internal/workflow"
)

// CanOptions holds flags for the can command.
type CanOptions struct {
	*RootOptions
	actor actorFlags
}

// CanResult is the oracle's answer with the context it was given.
type CanResult struct {
	CaseID  string           `json:"case_id"`
	Action  string           `json:"action"`
	Actor   string           `json:"actor"`
	Role    string           `json:"role"`
	Allowed bool             `json:"allowed"`
	Context workflow.Context `json:"context"`
}

// NewCanCommand creates the can command.
func NewCanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "can <case-id> <action>",
		Short: "Ask the permission oracle without changing anything",
		Long: `Build the role-specific context of a stored case and ask whether the
user may perform the action. Nothing is dispatched or recorded. UI-only
actions such as FASCICOLO.EDIT_OWN are accepted here.

Examples:
  fascicolo can c1 FASCICOLO.TAKE_BOF --as bof
  fascicolo can c1 VRC.VALIDATE --as controllo --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCan(opts, args[0], args[1], cmd)
		},
	}

	opts.actor.register(cmd.Flags())

	return cmd
}

func runCan(opts *CanOptions, caseID, actionArg string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	action, err := workflow.ParseAction(actionArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err.Error(), nil)
	}
	user, err := opts.actor.resolve()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err.Error(), nil)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := st.ReadCase(ctx, caseID)
	if err != nil {
		return reportReadError(formatter, caseID, err)
	}

	wctx := workflow.BuildContext(c, user.Role)
	out := CanResult{
		CaseID:  caseID,
		Action:  string(action),
		Actor:   user.ID,
		Role:    string(user.Role),
		Allowed: workflow.Can(user, action, wctx),
		Context: wctx,
	}

	if formatter.IsJSON() {
		return formatter.Success(out)
	}
	verdict := "denied"
	if out.Allowed {
		verdict = "allowed"
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s on %s: %s\n", out.Actor, out.Action, out.CaseID, verdict)
	fmt.Fprintf(w, "  state %s, overall %s, owner %q\n", wctx.State, wctx.Overall, wctx.OwnerID)
	return nil
}

// reportReadError maps a store read failure to CASE_NOT_FOUND or a
// database error.
func reportReadError(f *OutputFormatter, caseID string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return f.Fail(ExitCommandError, "CASE_NOT_FOUND", fmt.Sprintf("no such case: %s", caseID), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to read case %s: %v", caseID, err), nil)
}
