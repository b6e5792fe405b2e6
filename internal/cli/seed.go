package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fascicolo/internal/engine"
)

// SeedResult reports which fixture cases were stored.
type SeedResult struct {
	Database string   `json:"database"`
	Inserted []string `json:"inserted"`
	Skipped  []string `json:"skipped"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixtures>",
		Short: "Load case fixtures into the database",
		Long: `Compile and validate case fixtures, then insert every case and its
seed snapshot. Cases whose id is already stored are skipped, so seeding
twice is harmless. Nothing is inserted when validation fails.

Examples:
  fascicolo seed ./testdata/fixtures --db ./fascicolo.db
  fascicolo seed ./cases.cue --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	res, err := LoadFixtures(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	if !res.Valid() {
		return reportValidationErrors(formatter, res)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	result := SeedResult{Database: opts.Database, Inserted: []string{}, Skipped: []string{}}
	err = opts.runEngine(ctx, st, func(eng *engine.Engine) error {
		for _, c := range res.Cases {
			_, err := eng.Create(ctx, c)
			switch {
			case err == nil:
				result.Inserted = append(result.Inserted, c.ID)
				formatter.VerboseLog("Inserted %s", c.ID)
			case engine.CodeOf(err) == engine.ErrCodeCaseExists:
				result.Skipped = append(result.Skipped, c.ID)
				formatter.VerboseLog("Skipped %s: already stored", c.ID)
			default:
				return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to insert %s: %v", c.ID, err), nil)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d case(s), skipped %d already stored\n", len(result.Inserted), len(result.Skipped))
	return nil
}
