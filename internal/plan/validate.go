package plan

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/gauntlet/internal/registry"
	"github.com/roach88/gauntlet/internal/results"
)

// Problem is one defect found by Validate.
type Problem struct {
	// Path locates the defect, e.g. "models[2].entry_point".
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// Problems extracts every Problem from an error returned by Validate.
func Problems(err error) []*Problem {
	var out []*Problem
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			var p *Problem
			if errors.As(e, &p) {
				out = append(out, p)
			}
		}
		return out
	}
	var p *Problem
	if errors.As(err, &p) {
		out = append(out, p)
	}
	return out
}

// Validate checks p against the catalogs its entry points resolve in. All
// problems are collected and returned joined; nil means the plan is sound.
func Validate[M any](p *Plan, models *registry.Catalog[M], validations *registry.Catalog[registry.Validation[M]]) error {
	var errs []error
	add := func(path, format string, args ...any) {
		errs = append(errs, &Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if len(p.Models) == 0 {
		add("models", "at least one model is required")
	}
	if len(p.Validations) == 0 {
		add("validations", "at least one validation is required")
	}
	if p.Workers < 0 {
		add("workers", "must not be negative, got %d", p.Workers)
	}

	checkEntities(p.Models, "models", models.Has, add)
	checkEntities(p.Validations, "validations", validations.Has, add)

	for i, e := range p.Models {
		if len(e.OutputCols) > 0 {
			add(fmt.Sprintf("models[%d].output_cols", i), "output columns only apply to validations")
		}
	}
	for i, e := range p.Validations {
		seen := make(map[string]bool, len(e.OutputCols))
		for _, col := range e.OutputCols {
			path := fmt.Sprintf("validations[%d].output_cols", i)
			switch {
			case col == "":
				add(path, "empty column name")
			case results.IsReserved(col):
				add(path, "column %q is reserved", col)
			case seen[col]:
				add(path, "duplicate column %q", col)
			}
			seen[col] = true
		}
	}
	return errors.Join(errs...)
}

func checkEntities(entities []Entity, kind string, has func(string) bool, add func(string, string, ...any)) {
	var ids []string
	for i, e := range entities {
		path := fmt.Sprintf("%s[%d]", kind, i)
		switch {
		case e.ID == "":
			add(path+".id", "required")
		case !validID(e.ID):
			add(path+".id", "malformed ID %q (IDs must match %s)", e.ID, registry.IDPattern)
		case slices.Contains(ids, e.ID):
			add(path+".id", "duplicate ID %q", e.ID)
		}
		ids = append(ids, e.ID)

		if e.EntryPoint != "" && !e.Deprecated && !has(e.EntryPoint) {
			add(path+".entry_point", "%q does not resolve in the catalog", e.EntryPoint)
		}
	}
}

func validID(id string) bool {
	_, err := registry.ParseID(id)
	return err == nil
}
