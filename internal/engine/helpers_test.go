package engine

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/gauntlet/internal/registry"
	"github.com/roach88/gauntlet/internal/results"
	"github.com/roach88/gauntlet/internal/store"
	"github.com/roach88/gauntlet/internal/testutil"
)

type testModel = *testutil.Model

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fixture holds two models (m-a-v1 scoring 0.5, m-b-v1 scoring 0.25) and
// two validations (v-x-v1 -> x_score = 2*score, v-y-v1 -> y_score = score).
type fixture struct {
	t           *testing.T
	dir         string
	store       store.Store
	models      *registry.Registry[testModel]
	validations *registry.ValidationRegistry[testModel]
	runs        *testutil.Counter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, filepath.Join(t.TempDir(), "results.csv"))
}

func newFixtureAt(t *testing.T, path string) *fixture {
	t.Helper()
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		t:           t,
		dir:         filepath.Dir(path),
		store:       st,
		models:      registry.NewRegistry[testModel](),
		validations: registry.NewValidationRegistry[testModel](),
		runs:        testutil.NewCounter(),
	}
	f.models.MustRegister("m-a-v1", registry.Func(testutil.ModelFactory("m-a-v1", 0.5, nil)))
	f.models.MustRegister("m-b-v1", registry.Func(testutil.ModelFactory("m-b-v1", 0.25, nil)))
	f.validations.MustRegister("v-x-v1", registry.Func(testutil.ScoreValidation("v-x-v1", "x_score", 2, f.runs)),
		registry.WithOutputCols("x_score"))
	f.validations.MustRegister("v-y-v1", registry.Func(testutil.ScoreValidation("v-y-v1", "y_score", 1, f.runs)),
		registry.WithOutputCols("y_score"))
	return f
}

func (f *fixture) engine(opts ...Option) *Engine[testModel] {
	base := []Option{
		WithClock(testutil.NewStepClock(testEpoch, 500*time.Millisecond)),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
	return New(f.store, f.models, f.validations, append(base, opts...)...)
}

// withoutRuntime returns a copy of t with runtime_secs cleared, for
// comparing runs whose timings differ.
func withoutRuntime(t *results.Table) *results.Table {
	out := results.NewTable(t.Columns...)
	for _, r := range t.Rows {
		c := r.Clone()
		delete(c, results.ColRuntimeSecs)
		out.Rows = append(out.Rows, c)
	}
	return out
}

func pairsOf(t *results.Table) []string {
	out := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		p, _ := r.Pair()
		out = append(out, p.String())
	}
	return out
}

type policyFunc func(results.Pair, bool) bool

func (f policyFunc) Skip(p results.Pair, prior bool) bool { return f(p, prior) }

type recordingMetrics struct {
	*testutil.Counter
}

func (m *recordingMetrics) JobSkipped(validationID string) {
	m.Inc("skipped:" + validationID)
}

func (m *recordingMetrics) JobFinished(validationID, modelID, outcome string, runtime time.Duration) {
	m.Inc(outcome + ":" + validationID)
}
