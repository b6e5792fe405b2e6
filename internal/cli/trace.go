package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/fascicolo/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Action  string // optional - filter to specific action
	Outcome string // optional - filter to specific outcome
}

// TraceResult holds the audit log of a case.
type TraceResult struct {
	CaseID string            `json:"case_id,omitempty"`
	Events []store.CaseEvent `json:"events"`
	Stats  TraceStats        `json:"stats"`
}

// TraceStats counts the listed events by outcome.
type TraceStats struct {
	Total   int `json:"total"`
	Applied int `json:"applied"`
	Noop    int `json:"noop"`
	Denied  int `json:"denied"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [case-id]",
		Short: "Show the audit log of dispatches",
		Long: `Show every recorded dispatch of a case in seq order, or of all cases
when no id is given. Denied attempts are part of the log.

Examples:
  fascicolo trace c1
  fascicolo trace c1 --outcome denied
  fascicolo trace --action DELIVERY.SEND_TO_VRC --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID := ""
			if len(args) == 1 {
				caseID = args[0]
			}
			return runTrace(opts, caseID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "filter to specific action")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "filter to applied, noop or denied")

	return cmd
}

func runTrace(opts *TraceOptions, caseID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	if opts.Outcome != "" && !store.Outcome(opts.Outcome).Valid() {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, fmt.Sprintf("invalid outcome %q", opts.Outcome), nil)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if caseID != "" {
		if _, err := st.ReadCaseRow(ctx, caseID); err != nil {
			return reportReadError(formatter, caseID, err)
		}
	}

	events, err := st.ReadEvents(ctx, caseID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to read events: %v", err), nil)
	}

	result := TraceResult{CaseID: caseID, Events: filterEvents(events, opts.Action, opts.Outcome)}
	for _, ev := range result.Events {
		result.Stats.Total++
		switch ev.Outcome {
		case store.OutcomeApplied:
			result.Stats.Applied++
		case store.OutcomeNoop:
			result.Stats.Noop++
		case store.OutcomeDenied:
			result.Stats.Denied++
		}
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// filterEvents keeps events matching the non-empty filters.
func filterEvents(events []store.CaseEvent, action, outcome string) []store.CaseEvent {
	out := make([]store.CaseEvent, 0, len(events))
	for _, ev := range events {
		if action != "" && string(ev.Action) != action {
			continue
		}
		if outcome != "" && string(ev.Outcome) != outcome {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()
	if len(result.Events) == 0 {
		if result.CaseID != "" {
			fmt.Fprintf(w, "No events found for case: %s\n", result.CaseID)
		} else {
			fmt.Fprintln(w, "No events found.")
		}
		return nil
	}

	for _, ev := range result.Events {
		fmt.Fprintf(w, "[%d] %s %s by %s (%s): %s\n",
			ev.Seq, ev.CaseID, ev.Action, ev.Actor.ID, ev.Actor.Role, ev.Outcome)
		if verbose {
			fmt.Fprintf(w, "     at %s request %s\n", ev.At.Format(time.RFC3339), ev.RequestID)
			fmt.Fprintf(w, "     %s -> %s\n", ev.BeforeHash, ev.AfterHash)
		}
	}
	fmt.Fprintf(w, "\n%d event(s): %d applied, %d noop, %d denied\n",
		result.Stats.Total, result.Stats.Applied, result.Stats.Noop, result.Stats.Denied)
	return nil
}
