package registry

import (
	"context"
	"slices"
	"strings"

	"github.com/roach88/gauntlet/internal/results"
)

// Call carries the per-invocation arguments of a validation.
type Call struct {
	// ValidationArtefactsDir and ModelArtefactsDir are empty unless the run
	// has an artefacts directory.
	ValidationArtefactsDir string
	ModelArtefactsDir      string

	// Params are the run's extra parameters.
	Params map[string]any
}

// Validation scores a model and returns one result row. The row must not
// contain the reserved columns validation_id, model_id or runtime_secs.
type Validation[M any] func(ctx context.Context, model M, call Call) (results.Row, error)

// ValidationRegistry is a Registry of validations that also tracks each
// spec's declared output columns.
type ValidationRegistry[M any] struct {
	*Registry[Validation[M]]
}

// NewValidationRegistry creates an empty validation registry.
func NewValidationRegistry[M any](opts ...Option[Validation[M]]) *ValidationRegistry[M] {
	return &ValidationRegistry[M]{Registry: newRegistry(KindValidation, opts...)}
}

// OutputCols returns the union of all specs' declared columns, deduplicated,
// ordered by spec ID and then by declaration order. Deprecated specs count.
func (r *ValidationRegistry[M]) OutputCols() []string {
	specs := r.All()
	slices.SortFunc(specs, func(a, b Spec[Validation[M]]) int {
		return strings.Compare(a.ID, b.ID)
	})

	var cols []string
	seen := make(map[string]struct{})
	for _, spec := range specs {
		for _, c := range spec.OutputCols {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	return cols
}
