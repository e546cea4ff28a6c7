package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/roach88/gauntlet/internal/registry"
	"github.com/roach88/gauntlet/internal/results"
	"github.com/roach88/gauntlet/internal/store"
)

// Job outcomes reported to Metrics.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics receives per-job measurements. Implementations must be safe for
// concurrent use.
type Metrics interface {
	JobSkipped(validationID string)
	JobFinished(validationID, modelID, outcome string, runtime time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) JobSkipped(string)                                {}
func (nopMetrics) JobFinished(string, string, string, time.Duration) {}

// RunOptions configures one run.
type RunOptions struct {
	// ForceRerun selects pairs to recompute despite a prior result.
	ForceRerun ForceRerun

	// Policy overrides ForceRerun when set.
	Policy SkipPolicy

	// ArtefactsDir is the root of the per-validation and per-model
	// artefact directories. Empty disables artefacts.
	ArtefactsDir string

	// RunParams is copied into every validation call. Validations may
	// modify their copy.
	RunParams map[string]any

	// Workers bounds RunParallel's concurrency. Zero or less means
	// runtime.NumCPU().
	Workers int
}

func (o RunOptions) policy() SkipPolicy {
	if o.Policy != nil {
		return o.Policy
	}
	return o.ForceRerun
}

type config struct {
	clock   Clock
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics Metrics
	runIDs  RunIDGenerator
}

// Option configures an Engine.
type Option func(*config)

// WithClock sets the clock used to time validations.
func WithClock(c Clock) Option {
	return func(cfg *config) { cfg.clock = c }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithTracer sets the tracer for run and job spans. Default: no-op.
func WithTracer(t trace.Tracer) Option {
	return func(cfg *config) { cfg.tracer = t }
}

// WithMetrics sets the job metrics sink.
func WithMetrics(m Metrics) Option {
	return func(cfg *config) { cfg.metrics = m }
}

// WithRunIDGenerator sets the source of run IDs. Default: UUIDv7.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(cfg *config) { cfg.runIDs = g }
}

// Engine runs the validations of one registry against the models of
// another and keeps the results in a store.
type Engine[M any] struct {
	store       store.Store
	models      *registry.Registry[M]
	validations *registry.ValidationRegistry[M]
	cfg         config
}

// New creates an Engine. Registries are read at run time, so specs
// registered after New still take part in later runs.
func New[M any](st store.Store, models *registry.Registry[M], validations *registry.ValidationRegistry[M], opts ...Option) *Engine[M] {
	cfg := config{
		clock:   WallClock{},
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("gauntlet"),
		metrics: nopMetrics{},
		runIDs:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine[M]{store: st, models: models, validations: validations, cfg: cfg}
}

// Run executes every planned pair serially, merges the new rows into the
// prior results and writes the merged table once. Any error aborts the run
// before anything is written. The returned table is read back from the
// store, so it holds values as the next run will load them.
func (e *Engine[M]) Run(ctx context.Context, opts RunOptions) (*results.Table, error) {
	ctx, span, logger := e.startRun(ctx, "serial")
	defer span.End()

	prior, err := e.store.Load(ctx)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("load prior results: %w", err))
	}
	jobs := e.plan(prior, opts.policy(), logger)

	fresh := make([]results.Row, 0, len(jobs))
	for _, pair := range jobs {
		if err := ctx.Err(); err != nil {
			return nil, failSpan(span, err)
		}
		row, err := e.execute(ctx, pair, opts, logger)
		if err != nil {
			return nil, failSpan(span, err)
		}
		fresh = append(fresh, row)
	}

	merged := results.Merge(prior, fresh, e.leadingColumns())
	if err := e.store.Write(ctx, merged, results.ReservedColumns); err != nil {
		return nil, failSpan(span, fmt.Errorf("write results: %w", err))
	}
	persisted, err := e.store.Load(ctx)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("reload results: %w", err))
	}
	span.SetAttributes(attribute.Int("run.jobs", len(jobs)), attribute.Int("run.rows", persisted.Len()))
	logger.Info("run complete", "ran", len(fresh), "rows", persisted.Len(), "results", e.store.Path())
	return persisted, nil
}

func (e *Engine[M]) startRun(ctx context.Context, mode string) (context.Context, trace.Span, *slog.Logger) {
	runID := e.cfg.runIDs.Generate()
	ctx = store.WithRunID(ctx, runID)
	ctx, span := e.cfg.tracer.Start(ctx, "gauntlet.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("run.mode", mode),
		attribute.String("run.results", e.store.Path()),
	))
	return ctx, span, e.cfg.logger.With("run_id", runID)
}

// leadingColumns is the reserved columns followed by every declared
// validation output column.
func (e *Engine[M]) leadingColumns() []string {
	return append(slices.Clone(results.ReservedColumns), e.validations.OutputCols()...)
}

// plan lists the pairs to run: validations in registration order, models in
// registration order, deprecated specs and skipped pairs left out.
func (e *Engine[M]) plan(prior *results.Table, policy SkipPolicy, logger *slog.Logger) []results.Pair {
	done := prior.Index()
	var jobs []results.Pair
	for _, vs := range e.validations.All() {
		if vs.Deprecated() {
			logger.Info("skipping deprecated validation", "validation_id", vs.ID)
			continue
		}
		for _, ms := range e.models.All() {
			if ms.Deprecated() {
				logger.Info("skipping deprecated model", "model_id", ms.ID)
				continue
			}
			pair := results.Pair{ValidationID: vs.ID, ModelID: ms.ID}
			_, exists := done[pair]
			if policy.Skip(pair, exists) {
				logger.Info("skipping pair with prior result", "validation_id", vs.ID, "model_id", ms.ID)
				e.cfg.metrics.JobSkipped(vs.ID)
				continue
			}
			jobs = append(jobs, pair)
		}
	}
	return jobs
}

// execute runs one validation on one model and returns the enriched row.
func (e *Engine[M]) execute(ctx context.Context, pair results.Pair, opts RunOptions, logger *slog.Logger) (row results.Row, err error) {
	ctx, span := e.cfg.tracer.Start(ctx, "gauntlet.job", trace.WithAttributes(
		attribute.String("validation.id", pair.ValidationID),
		attribute.String("model.id", pair.ModelID),
	))
	defer span.End()

	var elapsed time.Duration
	defer func() {
		outcome := OutcomeOK
		if err != nil {
			outcome = OutcomeError
			failSpan(span, err)
		}
		e.cfg.metrics.JobFinished(pair.ValidationID, pair.ModelID, outcome, elapsed)
	}()

	logger.Info("running validation", "validation_id", pair.ValidationID, "model_id", pair.ModelID)

	validation, err := e.validations.Make(pair.ValidationID, nil)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", pair, err)
	}

	call := registry.Call{Params: runParams(opts.RunParams)}
	if opts.ArtefactsDir != "" {
		call.ValidationArtefactsDir, call.ModelArtefactsDir, err = artefactDirs(opts.ArtefactsDir, pair)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", pair, err)
		}
	}

	model, err := e.models.Make(pair.ModelID, nil)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", pair, err)
	}

	start := e.cfg.clock.Now()
	out, err := validation(ctx, model, call)
	elapsed = e.cfg.clock.Now().Sub(start)
	if err != nil {
		return nil, fmt.Errorf("validation %s on model %s: %w", pair.ValidationID, pair.ModelID, err)
	}
	if keys := out.ReservedKeys(); len(keys) > 0 {
		return nil, newReservedKeyError(pair.ValidationID, pair.ModelID, keys)
	}

	row = make(results.Row, len(out)+len(results.ReservedColumns))
	for k, v := range out {
		row[k] = v
	}
	row[results.ColValidationID] = results.String(pair.ValidationID)
	row[results.ColModelID] = results.String(pair.ModelID)
	row[results.ColRuntimeSecs] = results.Float(elapsed.Seconds())

	span.SetAttributes(attribute.Float64("job.runtime_secs", elapsed.Seconds()))
	logger.Debug("validation finished", "validation_id", pair.ValidationID, "model_id", pair.ModelID,
		"runtime_secs", elapsed.Seconds())
	return row, nil
}

// artefactDirs creates and returns {root}/{validation_id}/ and
// {root}/{validation_id}/{model_id}/, each with a trailing separator.
func artefactDirs(root string, pair results.Pair) (string, string, error) {
	vdir := filepath.Join(root, pair.ValidationID)
	mdir := filepath.Join(vdir, pair.ModelID)
	if err := os.MkdirAll(mdir, 0o755); err != nil {
		return "", "", fmt.Errorf("create artefacts dir: %w", err)
	}
	sep := string(filepath.Separator)
	return vdir + sep, mdir + sep, nil
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// runParams returns a private, non-nil copy of params for one call.
func runParams(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	return maps.Clone(params)
}
