package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fascicolo/internal/store"
)

// ReplayReport holds the replay result of every checked case.
type ReplayReport struct {
	Cases  []store.ReplayResult `json:"cases"`
	Total  int                  `json:"total"`
	Failed int                  `json:"failed"`
	AllOK  bool                 `json:"all_ok"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [case-id]",
		Short: "Replay the audit log and verify stored cases",
		Long: `Rebuild each case from its seed snapshot by re-applying its audit log
with the workflow rules, and check every recorded outcome and hash
against the replay and the stored record.

Exit codes:
  0 - Every replayed case matches
  1 - At least one case diverged
  2 - Command error (unknown case, database error)

Examples:
  fascicolo replay
  fascicolo replay c1 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID := ""
			if len(args) == 1 {
				caseID = args[0]
			}
			return runReplay(rootOpts, caseID, cmd)
		},
	}

	return cmd
}

func runReplay(opts *RootOptions, caseID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var results []store.ReplayResult
	if caseID != "" {
		res, err := st.ReplayCase(ctx, caseID)
		if err != nil {
			return reportReadError(formatter, caseID, err)
		}
		results = []store.ReplayResult{res}
	} else {
		results, err = st.ReplayAll(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to replay: %v", err), nil)
		}
	}

	report := ReplayReport{Cases: results, Total: len(results), AllOK: true}
	for _, r := range results {
		if !r.OK() {
			report.Failed++
			report.AllOK = false
		}
	}

	if formatter.IsJSON() {
		if !report.AllOK {
			msg := fmt.Sprintf("%d case(s) diverged on replay", report.Failed)
			return formatter.Fail(ExitFailure, ErrCodeReplay, msg, report)
		}
		return formatter.Success(report)
	}
	return outputReplayText(cmd, report, opts.Verbose)
}

func outputReplayText(cmd *cobra.Command, report ReplayReport, verbose bool) error {
	w := cmd.OutOrStdout()
	if report.Total == 0 {
		fmt.Fprintln(w, "No cases found in database.")
		return nil
	}

	for _, r := range report.Cases {
		mark := "✓"
		if !r.OK() {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d event(s), %d applied\n", mark, r.CaseID, r.Events, r.Applied)
		if verbose {
			fmt.Fprintf(w, "    seed %s\n    final %s\n    stored %s\n", r.SeedHash, r.FinalHash, r.StoredHash)
		}
		for _, m := range r.Mismatches {
			if m.Seq > 0 {
				fmt.Fprintf(w, "    seq %d: %s\n", m.Seq, m.Reason)
			} else {
				fmt.Fprintf(w, "    %s\n", m.Reason)
			}
		}
	}

	fmt.Fprintln(w)
	if !report.AllOK {
		fmt.Fprintf(w, "Replay Summary: %d of %d case(s) diverged\n", report.Failed, report.Total)
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) diverged on replay", report.Failed))
	}
	fmt.Fprintf(w, "✓ All %d case(s) replay to their stored record\n", report.Total)
	return nil
}
