package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fascicolo/internal/engine"
	"github.com/roach88/fascicolo/internal/workflow"
)

// DispatchOptions holds flags for the dispatch command.
type DispatchOptions struct {
	*RootOptions
	actor     actorFlags
	RequestID string
}

// DispatchResult is the outcome of one dispatched action.
type DispatchResult struct {
	CaseID    string `json:"case_id"`
	Action    string `json:"action"`
	Actor     string `json:"actor"`
	Role      string `json:"role"`
	Outcome   string `json:"outcome,omitempty"`
	Seq       int64  `json:"seq,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Overall   string `json:"overall,omitempty"`
	Progress  int    `json:"progress"`
}

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DispatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dispatch <case-id> <action>",
		Short: "Perform one workflow action on a stored case",
		Long: `Run one action through the engine against the database.

The permission oracle decides; a permitted action is applied and
persisted with its audit event, a refused one is recorded as denied.

Exit codes:
  0 - Action applied
  1 - Action denied or not a transition
  2 - Command error (unknown case, bad arguments, database error)

Examples:
  fascicolo dispatch c1 FASCICOLO.TAKE_COMM --as venditore
  fascicolo dispatch c1 FASCICOLO.VALIDATE_BOF --user-id anna --role BOF --name "Anna"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(opts, args[0], args[1], cmd)
		},
	}

	opts.actor.register(cmd.Flags())
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "correlation id recorded in the audit log (default: generated)")

	return cmd
}

func runDispatch(opts *DispatchOptions, caseID, actionArg string, cmd *cobra.Command) error {
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

	var (
		res         engine.Result
		dispatchErr error
	)
	err = opts.runEngine(ctx, st, func(eng *engine.Engine) error {
		res, dispatchErr = eng.Dispatch(ctx, engine.Command{
			CaseID:    caseID,
			Action:    action,
			Actor:     user,
			RequestID: opts.RequestID,
		})
		return nil
	})
	if err != nil {
		return err
	}

	out := DispatchResult{
		CaseID:    caseID,
		Action:    string(action),
		Actor:     user.ID,
		Role:      string(user.Role),
		Outcome:   string(res.Outcome),
		Seq:       res.Seq,
		RequestID: res.RequestID,
	}
	if res.Case != nil {
		out.Overall = string(workflow.ResolveOverall(res.Case))
		out.Progress = res.Case.Progress
	}

	if dispatchErr != nil {
		code := string(engine.CodeOf(dispatchErr))
		if code == "" {
			code = ErrCodeGeneric
		}
		return formatter.Fail(dispatchExitCode(dispatchErr), code, dispatchErr.Error(), out)
	}

	if formatter.IsJSON() {
		return formatter.Success(out)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s by %s (%s) %s at seq %d, overall %s (progress %d%%)\n",
		out.CaseID, out.Action, out.Actor, out.Role, out.Outcome, out.Seq, out.Overall, out.Progress)
	return nil
}
