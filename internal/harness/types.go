package harness

import (
	"github.com/roach88/gauntlet/internal/results"
)

// Job event types recorded in a Result's trace.
const (
	EventRan    = "ran"
	EventFailed = "failed"
)

// TraceEvent records one executed job.
type TraceEvent struct {
	Step         string `json:"step"`
	Type         string `json:"type"` // "ran" or "failed"
	ValidationID string `json:"validation_id"`
	ModelID      string `json:"model_id"`
}

// StepResult summarises one step.
type StepResult struct {
	Name    string `json:"name"`
	RunID   string `json:"run_id"`
	Ran     int    `json:"ran"`
	Skipped int    `json:"skipped"`
	Rows    int    `json:"rows"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step succeeded and every assertion held.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Trace lists executed jobs in completion order per step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Table is the result table returned by the last step that completed.
	Table *results.Table `json:"-"`

	// WorkDir holds the results file and artefacts.
	WorkDir string `json:"-"`
}

// NewResult creates a new passing result.
func NewResult(workDir string) *Result {
	return &Result{
		Pass:    true,
		Steps:   []StepResult{},
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Table:   results.EmptyTable(),
		WorkDir: workDir,
	}
}

// AddError adds an error message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// ranCount counts executed jobs matching the non-empty filters.
func (r *Result) ranCount(validationID, modelID string) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Type != EventRan {
			continue
		}
		if validationID != "" && ev.ValidationID != validationID {
			continue
		}
		if modelID != "" && ev.ModelID != modelID {
			continue
		}
		n++
	}
	return n
}
