package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fascicolo/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Cases  int                        `json:"cases"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <fixtures>",
		Short: "Validate case fixtures without touching the database",
		Long: `Compile CUE, YAML or JSON case fixtures against the case schema and
check the workflow invariants the schema cannot express: duplicate ids,
branch states in the wrong branch, inactive branches, legacy status
drift, possessors outside review.

Exit codes:
  0 - All fixtures valid
  1 - Schema or invariant errors
  2 - Command error (fixtures not found, etc.)

Examples:
  fascicolo validate ./testdata/fixtures
  fascicolo validate ./cases.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	res, err := LoadFixtures(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Compiled %d case(s) from %s", len(res.Cases), path)

	if !res.Valid() {
		return reportValidationErrors(formatter, res)
	}

	if formatter.IsJSON() {
		return formatter.Success(ValidationResult{Valid: true, Cases: len(res.Cases)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d case(s) valid\n", len(res.Cases))
	return nil
}
