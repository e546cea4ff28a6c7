package harness

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/roach88/gauntlet/internal/catalog"
	"github.com/roach88/gauntlet/internal/engine"
	"github.com/roach88/gauntlet/internal/plan"
	"github.com/roach88/gauntlet/internal/results"
	"github.com/roach88/gauntlet/internal/store"
	"github.com/roach88/gauntlet/internal/testutil"
)

// ArtefactsDirName is the artefacts root inside a scenario's work
// directory, used when the plan enables artefacts.
const ArtefactsDirName = "artefacts"

// Harness is the scenario execution engine.
type Harness struct {
	logger *slog.Logger
	clock  engine.Clock
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger passed to the engine.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithClock replaces the default stepping clock.
func WithClock(c engine.Clock) Option {
	return func(h *Harness) { h.clock = c }
}

// New creates a Harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  testutil.NewStepClock(time.Unix(0, 0).UTC(), 10*time.Millisecond),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario and returns the result.
//
// The results file and artefacts live in workDir; an empty workDir gets a
// fresh temporary directory that the caller owns. Steps run in order and
// stop at the first failing step. Assertions are then evaluated against
// whatever completed. The returned error covers only setup failures, such
// as an unreadable plan; step and assertion failures are in the Result.
func (h *Harness) Run(ctx context.Context, s *Scenario, workDir string) (*Result, error) {
	if workDir == "" {
		dir, err := os.MkdirTemp("", "gauntlet-scenario-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create work dir: %w", err)
		}
		workDir = dir
	}

	p, err := plan.Load(s.Plan)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	p.ResultsPath = filepath.Join(workDir, s.Results)
	if p.ArtefactsDir != "" {
		p.ArtefactsDir = filepath.Join(workDir, ArtefactsDirName)
	}

	result := NewResult(workDir)
	for i, step := range s.Steps {
		runID := fmt.Sprintf("%s/%d-%s", s.Name, i+1, step.Name)
		if err := h.runStep(ctx, p, step, runID, result); err != nil {
			result.AddError(fmt.Sprintf("step %s: %v", step.Name, err))
			break
		}
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// runStep performs one engine run and records what it did.
func (h *Harness) runStep(ctx context.Context, p *plan.Plan, step Step, runID string, result *Result) error {
	opts := p.RunOptions()
	if step.ForceRerun != nil {
		opts.ForceRerun = *step.ForceRerun
	}
	parallel := p.Parallel
	if step.Parallel != nil {
		parallel = *step.Parallel
	}

	models, validations, err := plan.Build(p, catalog.Models(), catalog.Validations(), h.logger)
	if err != nil {
		return fmt.Errorf("build registries: %w", err)
	}

	st, err := store.Open(p.ResultsPath)
	if err != nil {
		return err
	}
	defer st.Close()

	rec := &jobRecorder{step: step.Name}
	eng := engine.New(st, models, validations,
		engine.WithLogger(h.logger),
		engine.WithClock(h.clock),
		engine.WithMetrics(rec),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(runID)),
	)

	var table *results.Table
	if parallel {
		table, err = eng.RunParallel(ctx, opts)
	} else {
		table, err = eng.Run(ctx, opts)
	}
	events, skipped := rec.snapshot()
	result.Trace = append(result.Trace, events...)
	if err != nil {
		return err
	}

	ran := 0
	for _, ev := range events {
		if ev.Type == EventRan {
			ran++
		}
	}
	result.Steps = append(result.Steps, StepResult{
		Name:    step.Name,
		RunID:   runID,
		Ran:     ran,
		Skipped: skipped,
		Rows:    table.Len(),
	})
	result.Table = table

	if step.ExpectRan != nil && ran != *step.ExpectRan {
		result.AddError(fmt.Sprintf("step %s: expected %d job(s) to run, got %d", step.Name, *step.ExpectRan, ran))
	}
	return nil
}

// jobRecorder collects job events through the engine's Metrics hook.
type jobRecorder struct {
	step string

	mu      sync.Mutex
	events  []TraceEvent
	skipped int
}

var _ engine.Metrics = (*jobRecorder)(nil)

func (r *jobRecorder) JobSkipped(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

func (r *jobRecorder) JobFinished(validationID, modelID, outcome string, _ time.Duration) {
	typ := EventRan
	if outcome != engine.OutcomeOK {
		typ = EventFailed
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, TraceEvent{
		Step:         r.step,
		Type:         typ,
		ValidationID: validationID,
		ModelID:      modelID,
	})
}

// snapshot returns the events in pair order, so parallel steps trace the
// same way as serial ones.
func (r *jobRecorder) snapshot() ([]TraceEvent, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := slices.Clone(r.events)
	slices.SortStableFunc(events, func(a, b TraceEvent) int {
		return cmp.Or(
			cmp.Compare(a.ValidationID, b.ValidationID),
			cmp.Compare(a.ModelID, b.ModelID),
		)
	})
	return events, r.skipped
}
