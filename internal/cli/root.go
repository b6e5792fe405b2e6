package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/roach88/fascicolo/internal/config"
	"github.com/roach88/fascicolo/internal/engine"
	"github.com/roach88/fascicolo/internal/store"
	"github.com/roach88/fascicolo/internal/telemetry"
)

// RootOptions holds global flags and the state built from them before a
// subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Database   string

	Config *config.Config
	Logger *slog.Logger
	Meter  metric.Meter

	shutdown telemetry.Shutdown
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// flagKeys binds persistent flags over config file and environment.
var flagKeys = map[string]string{
	"db": config.KeyDatabase,
}

// NewRootCommand creates the root command for the fascicolo CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fascicolo",
		Short: "fascicolo - vehicle sale case workflow",
		Long: `Run the vehicle sale case workflow against a SQLite database.

A case moves from the salesperson's draft through parallel back-office
validation (BO, BOF, BOU), delivery and delivery control. Every command
goes through the same permission oracle and transition function, and
every dispatch is recorded in an audit log that replay can verify.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./fascicolo.yaml)")
	cmd.PersistentFlags().String("db", "", "path to SQLite database (default from config)")

	// Add subcommands
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDispatchCommand(opts))
	cmd.AddCommand(NewCanCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads configuration and installs logging and metrics.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return WrapExitError(ExitCommandError, "failed to bind flags", err)
	}
	cfg, err := config.Load(v, o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg
	o.Database = cfg.Database

	if o.Logger == nil {
		logger, err := NewLogger(cfg.Log, o.Verbose, cmd.ErrOrStderr())
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid log config", err)
		}
		o.Logger = logger
	}

	if o.Meter == nil {
		mp, shutdown, err := telemetry.Init(telemetry.Options{
			Enabled: cfg.Metrics.Enabled,
			Writer:  cmd.ErrOrStderr(),
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start metrics", err)
		}
		o.Meter = mp.Meter(engine.MeterName)
		o.shutdown = shutdown
	}
	return nil
}

func (o *RootOptions) close() error {
	if o.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := o.shutdown(ctx)
	o.shutdown = nil
	return err
}

// NewLogger builds the slog logger described by cfg. Verbose forces the
// debug level.
func NewLogger(cfg config.LogConfig, verbose bool, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// runEngine restores every stored case into a new engine, runs it for
// the duration of fn and stops it afterwards.
func (o *RootOptions) runEngine(ctx context.Context, st *store.Store, fn func(*engine.Engine) error) error {
	opts := []engine.EngineOption{
		engine.WithStore(st),
		engine.WithLogger(o.logger()),
	}
	if o.Meter != nil {
		opts = append(opts, engine.WithMeter(o.Meter))
	}
	eng := engine.New(opts...)
	if err := eng.Restore(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to restore cases", err)
	}

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	defer func() {
		eng.Stop()
		<-done
	}()

	return fn(eng)
}
