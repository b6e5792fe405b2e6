package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fascicolo/internal/queryir"
	"github.com/roach88/fascicolo/internal/querysql"
	"github.com/roach88/fascicolo/internal/workflow"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Overall      []string
	Owner        string
	InCharge     string
	AvailableFor string
	WorkedBy     string
	Role         string
	Limit        int
}

// ListRow is one case in a worklist.
type ListRow struct {
	ID       string          `json:"id"`
	Number   string          `json:"number,omitempty"`
	Overall  workflow.State  `json:"overall"`
	Stato    string          `json:"stato,omitempty"`
	Progress int             `json:"progress"`
	Owner    string          `json:"owner,omitempty"`
	Status   workflow.Status `json:"status"`
}

// ListResult is a worklist and the query that produced it.
type ListResult struct {
	Query string    `json:"query"`
	Cases []ListRow `json:"cases"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored cases as a worklist",
		Long: `List stored cases, optionally narrowed to a worklist.

Filters combine with AND. --available-for is a user's pickup pool and
--worked-by the cases a user currently holds; both are narrowed in SQL
and decided by the workflow rules on each case.

Examples:
  fascicolo list
  fascicolo list --overall S02,S03
  fascicolo list --available-for bof
  fascicolo list --worked-by venditore --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Overall, "overall", nil, "overall states, e.g. S02,S11")
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "owner user id")
	cmd.Flags().StringVar(&opts.InCharge, "in-charge", "", "user id possessing any area")
	cmd.Flags().StringVar(&opts.AvailableFor, "available-for", "", "username whose pickup pool to list")
	cmd.Flags().StringVar(&opts.WorkedBy, "worked-by", "", "username whose held cases to list")
	cmd.Flags().StringVar(&opts.Role, "role", "", "role whose visible status to show (default: the filtered user's role)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum cases to list (0 = no limit)")

	return cmd
}

// worklist is a compiled list request: the SQL prefilter and the
// per-case refinements.
type worklist struct {
	query  queryir.Worklist
	keep   []func(*workflow.Case) bool
	viewer workflow.Role
	empty  bool
}

func buildWorklist(opts *ListOptions) (*worklist, error) {
	wl := &worklist{viewer: workflow.RoleAdmin}
	var preds []queryir.Predicate

	if len(opts.Overall) > 0 {
		states := make([]workflow.State, 0, len(opts.Overall))
		for _, s := range opts.Overall {
			st, err := workflow.ParseState(strings.ToUpper(strings.TrimSpace(s)))
			if err != nil {
				return nil, err
			}
			states = append(states, st)
		}
		preds = append(preds, queryir.OverallIn(states...))
	}
	if opts.Owner != "" {
		preds = append(preds, queryir.OwnedBy(opts.Owner))
	}
	if opts.InCharge != "" {
		preds = append(preds, queryir.InChargeOf(opts.InCharge))
	}
	if opts.AvailableFor != "" {
		user, ok := workflow.ResolveUser(opts.AvailableFor)
		if !ok {
			return nil, fmt.Errorf("invalid --available-for user %q", opts.AvailableFor)
		}
		wl.viewer = user.Role
		pred, ok := queryir.PickupCandidates(user.Role)
		if !ok {
			wl.empty = true
		} else {
			preds = append(preds, pred)
			wl.keep = append(wl.keep, func(c *workflow.Case) bool { return workflow.Available(c, user) })
		}
	}
	if opts.WorkedBy != "" {
		user, ok := workflow.ResolveUser(opts.WorkedBy)
		if !ok {
			return nil, fmt.Errorf("invalid --worked-by user %q", opts.WorkedBy)
		}
		wl.viewer = user.Role
		preds = append(preds, queryir.Worked(user))
		wl.keep = append(wl.keep, func(c *workflow.Case) bool { return workflow.HoldsCase(c, user) })
	}
	if opts.Role != "" {
		role, err := workflow.ParseRole(strings.ToUpper(opts.Role))
		if err != nil {
			return nil, err
		}
		wl.viewer = role
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("--limit must not be negative")
	}

	switch len(preds) {
	case 0:
	case 1:
		wl.query.Filter = preds[0]
	default:
		wl.query.Filter = queryir.And{Predicates: preds}
	}
	// Refined lists are truncated after refinement.
	if len(wl.keep) == 0 {
		wl.query.Limit = opts.Limit
	}
	return wl, nil
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	wl, err := buildWorklist(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err.Error(), nil)
	}

	query, params, err := querysql.NewSQLCompiler().Compile(wl.query)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err.Error(), nil)
	}
	formatter.VerboseLog("Query: %s %v", query, params)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	result := ListResult{Query: query, Cases: []ListRow{}}
	if !wl.empty {
		cases, err := st.QueryCases(ctx, query, params...)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to query cases: %v", err), nil)
		}
		for _, c := range cases {
			if !wl.accepts(c) {
				continue
			}
			result.Cases = append(result.Cases, ListRow{
				ID:       c.ID,
				Number:   c.Number,
				Overall:  workflow.ResolveOverall(c),
				Stato:    c.LegacyStatus,
				Progress: c.Progress,
				Owner:    c.OwnerID,
				Status:   workflow.VisibleStatus(c, wl.viewer),
			})
			if opts.Limit > 0 && len(result.Cases) == opts.Limit {
				break
			}
		}
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Cases) == 0 {
		fmt.Fprintln(w, "No cases found.")
		return nil
	}
	for _, r := range result.Cases {
		fmt.Fprintf(w, "%-16s %-10s %-4s %3d%%  %-12s %s\n", r.ID, r.Number, r.Overall, r.Progress, r.Owner, r.Status.Label)
	}
	fmt.Fprintf(w, "\n%d case(s)\n", len(result.Cases))
	return nil
}

func (wl *worklist) accepts(c *workflow.Case) bool {
	for _, keep := range wl.keep {
		if !keep(c) {
			return false
		}
	}
	return true
}
