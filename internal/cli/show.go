package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/fascicolo/internal/workflow"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Role string
}

// RoleStatus is the status one role sees.
type RoleStatus struct {
	Role   workflow.Role   `json:"role"`
	Status workflow.Status `json:"status"`
}

// ShowResult is a stored case with its derived views.
type ShowResult struct {
	Case       *workflow.Case         `json:"case"`
	Overall    workflow.State         `json:"overall"`
	Version    int64                  `json:"version"`
	UpdatedSeq int64                  `json:"updated_seq"`
	Visible    []RoleStatus           `json:"visible"`
	Branches   []workflow.BranchBadge `json:"branches"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show a case, its visible status per role and its branch badges",
		Long: `Print a stored case with the status each role sees in lists and the
badge of every validation branch.

Examples:
  fascicolo show c1
  fascicolo show c1 --role BOF
  fascicolo show c1 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Role, "role", "", "only show the status seen by this role")

	return cmd
}

func runShow(opts *ShowOptions, caseID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	roles := workflow.AllRoles()
	if opts.Role != "" {
		role, err := workflow.ParseRole(strings.ToUpper(opts.Role))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err.Error(), nil)
		}
		roles = []workflow.Role{role}
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	row, err := st.ReadCaseRow(ctx, caseID)
	if err != nil {
		return reportReadError(formatter, caseID, err)
	}

	c := row.Case
	out := ShowResult{
		Case:       c,
		Overall:    workflow.ResolveOverall(c),
		Version:    row.Version,
		UpdatedSeq: row.UpdatedSeq,
		Visible:    make([]RoleStatus, 0, len(roles)),
		Branches:   workflow.BranchBadges(c),
	}
	for _, r := range roles {
		out.Visible = append(out.Visible, RoleStatus{Role: r, Status: workflow.VisibleStatus(c, r)})
	}

	if formatter.IsJSON() {
		return formatter.Success(out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Case %s", c.ID)
	if c.Number != "" {
		fmt.Fprintf(w, " (%s)", c.Number)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  overall:  %s %s\n", out.Overall, out.Overall.Label())
	fmt.Fprintf(w, "  stato:    %s\n", c.LegacyStatus)
	fmt.Fprintf(w, "  progress: %d%%\n", c.Progress)
	fmt.Fprintf(w, "  owner:    %s\n", c.OwnerID)
	fmt.Fprintf(w, "  version:  %d (seq %d)\n", row.Version, row.UpdatedSeq)

	fmt.Fprintln(w, "\nBranches:")
	for _, b := range out.Branches {
		fmt.Fprintf(w, "  %-4s %s [%s]", b.Area, b.Status.Label, b.Status.Variant)
		if holder := c.InCharge(b.Area); holder != "" {
			fmt.Fprintf(w, " in charge: %s", holder)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "\nVisible status:")
	for _, rs := range out.Visible {
		fmt.Fprintf(w, "  %-14s %s [%s]\n", rs.Role, rs.Status.Label, rs.Status.Variant)
	}

	if opts.Verbose && len(c.Timeline) > 0 {
		fmt.Fprintln(w, "\nTimeline:")
		for _, e := range c.Timeline {
			fmt.Fprintf(w, "  %s %-10s %s\n", e.At.Format(time.RFC3339), e.Actor, e.Event)
		}
	}
	return nil
}
