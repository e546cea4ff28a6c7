package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gauntlet/internal/catalog"
	"github.com/roach88/gauntlet/internal/engine"
	"github.com/roach88/gauntlet/internal/metrics"
	"github.com/roach88/gauntlet/internal/plan"
	"github.com/roach88/gauntlet/internal/results"
	"github.com/roach88/gauntlet/internal/store"
	"github.com/roach88/gauntlet/internal/tracing"
)

// Flags of the run command that may also come from config or environment.
var runConfigFlags = []string{"results", "workers", "artefacts-dir", "metrics-file", "trace"}

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Results      string
	ForceRerun   string
	ArtefactsDir string
	Parallel     bool
	Workers      int
	MetricsFile  string
	Trace        string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Clock allows overriding the runtime clock (for testing).
	Clock engine.Clock
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <plan>",
		Short: "Run every missing validation/model pair of a plan",
		Long: `Run the validations of a plan against its models.

Pairs that already have a row in the results table are skipped unless
--force-rerun selects them. The merged table is written back and printed.

Flag defaults may come from --config or GAUNTLET_* environment variables
(GAUNTLET_RESULTS, GAUNTLET_WORKERS, GAUNTLET_ARTEFACTS_DIR,
GAUNTLET_METRICS_FILE, GAUNTLET_TRACE).

Example:
  gauntlet run plan.yaml
  gauntlet run --results results.db --parallel --workers 4 plan.cue
  gauntlet run --force-rerun SVC-v1,SVC-v2 plan.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Results, "results", "", "results table path (.csv, or .db for SQLite); overrides the plan")
	cmd.Flags().StringVar(&opts.ForceRerun, "force-rerun", "", `pairs to recompute: "all" or comma-separated model IDs`)
	cmd.Flags().StringVar(&opts.ArtefactsDir, "artefacts-dir", "", "artefacts root; overrides the plan")
	cmd.Flags().BoolVar(&opts.Parallel, "parallel", false, "run jobs on a worker pool")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel worker count (0 = one per CPU)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
	cmd.Flags().StringVar(&opts.Trace, "trace", "none", "trace exporter (none|stdout|file:<path>)")

	return cmd
}

func runPlan(opts *RunOptions, planPath string, cmd *cobra.Command) error {
	logger := setupLogging(cmd, opts.Verbose)
	formatter := newFormatter(opts.RootOptions, cmd)

	if err := bindFlags(opts.Config, cmd, runConfigFlags...); err != nil {
		return WrapExitError(ExitCommandError, "failed to read flags", err)
	}
	cfg := opts.Config

	p, err := plan.Load(planPath)
	if err != nil {
		_ = formatter.Error(ErrCodePlan, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}
	if err := applyRunOverrides(p, opts, cmd); err != nil {
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}

	models, validations, err := plan.Build(p, catalog.Models(), catalog.Validations(), logger)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidPlan, "plan has problems", problemDetails(err))
		return WrapExitError(ExitCommandError, "invalid plan", err)
	}

	logger.Info("opening results store", "path", p.ResultsPath)
	st, err := store.Open(p.ResultsPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open results store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing results store", "error", closeErr)
		}
	}()

	traceCfg, err := tracing.ParseFlag(cfg.GetString("trace"))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --trace", err)
	}
	traceCfg.Writer = cmd.ErrOrStderr()
	provider, err := tracing.NewProvider(traceCfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start tracing", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("error flushing traces", "error", err)
		}
	}()

	recorder := metrics.New()
	runIDs := &recordingGenerator{next: opts.RunIDs}
	if runIDs.next == nil {
		runIDs.next = engine.UUIDv7Generator{}
	}
	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithTracer(provider.Tracer()),
		engine.WithMetrics(recorder),
		engine.WithRunIDGenerator(runIDs),
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(opts.Clock))
	}
	eng := engine.New(st, models, validations, engineOpts...)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	logger.Info("run starting",
		"plan", p.Name,
		"models", models.Len(),
		"validations", validations.Len(),
		"parallel", p.Parallel,
		"force_rerun", p.ForceRerun.String())

	var table *results.Table
	if p.Parallel {
		table, err = eng.RunParallel(ctx, p.RunOptions())
	} else {
		table, err = eng.Run(ctx, p.RunOptions())
	}

	if path := cfg.GetString("metrics-file"); path != "" {
		if werr := recorder.WriteTextfile(path); werr != nil {
			logger.Error("error writing metrics textfile", "path", path, "error", werr)
		}
	}

	if err != nil {
		details := map[string]string{"results": p.ResultsPath}
		var runErr *engine.RunError
		if errors.As(err, &runErr) {
			details["code"] = string(runErr.Code)
		}
		_ = formatter.Error(ErrCodeRun, err.Error(), details)
		return WrapExitError(ExitFailure, "run failed", err)
	}

	logger.Info("run finished", "rows", table.Len(), "run_id", runIDs.last)
	return formatter.Table(table, runIDs.last)
}

// applyRunOverrides layers flag, environment and config values over the
// plan. Paths given this way are relative to the working directory.
func applyRunOverrides(p *plan.Plan, opts *RunOptions, cmd *cobra.Command) error {
	cfg := opts.Config
	if cfg.IsSet("results") {
		p.ResultsPath = cfg.GetString("results")
	}
	if cfg.IsSet("artefacts-dir") {
		p.ArtefactsDir = cfg.GetString("artefacts-dir")
	}
	if cfg.IsSet("workers") {
		p.Workers = cfg.GetInt("workers")
	}
	if cmd.Flags().Changed("parallel") {
		p.Parallel = opts.Parallel
	}
	if cmd.Flags().Changed("force-rerun") {
		fr, err := engine.ParseForceRerun(opts.ForceRerun)
		if err != nil {
			return err
		}
		p.ForceRerun = fr
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// problemDetails extracts plan problems for structured output. Errors
// that are not problems (a failed registration) pass through as text.
func problemDetails(err error) any {
	if problems := plan.Problems(err); len(problems) > 0 {
		return problems
	}
	return err.Error()
}

// recordingGenerator remembers the last run ID it handed out.
type recordingGenerator struct {
	next engine.RunIDGenerator
	last string
}

func (g *recordingGenerator) Generate() string {
	g.last = g.next.Generate()
	return g.last
}
