// Package plan loads run plans: declarative descriptions of the models and
// validations to register and the options of the run that executes them.
//
// Plans are YAML (.yaml, .yml) or CUE (.cue) files. CUE plans are
// evaluated, exported to JSON and decoded into the same Plan type, so both
// formats describe exactly the same structure. Unknown fields are an error
// in either format.
//
// Relative results_path and artefacts_dir values are resolved against the
// directory holding the plan file.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/gauntlet/internal/engine"
)

// DefaultResultsPath is used when a plan names no results file.
const DefaultResultsPath = "validation_results.csv"

// Plan describes one harness configuration.
type Plan struct {
	// Name labels the plan in logs.
	Name string `yaml:"name" json:"name"`

	// ResultsPath is the result table location. The extension picks the
	// store backend.
	ResultsPath string `yaml:"results_path" json:"results_path"`

	// ArtefactsDir roots the per-validation artefact directories. Empty
	// disables artefacts.
	ArtefactsDir string `yaml:"artefacts_dir" json:"artefacts_dir"`

	ForceRerun engine.ForceRerun `yaml:"force_rerun" json:"force_rerun"`

	// RunParams is passed to every validation.
	RunParams map[string]any `yaml:"run_params" json:"run_params"`

	// Parallel selects the worker-pool engine.
	Parallel bool `yaml:"parallel" json:"parallel"`

	// Workers bounds parallel runs. Zero means one per CPU.
	Workers int `yaml:"workers" json:"workers"`

	Models      []Entity `yaml:"models" json:"models"`
	Validations []Entity `yaml:"validations" json:"validations"`

	// Dir is the directory the plan was loaded from.
	Dir string `yaml:"-" json:"-"`
}

// Entity declares one model or validation.
type Entity struct {
	ID string `yaml:"id" json:"id"`

	// EntryPoint is a "module:attribute" catalog reference. Empty means
	// the entity is defunct and can no longer be made.
	EntryPoint string `yaml:"entry_point" json:"entry_point"`

	Deprecated bool `yaml:"deprecated" json:"deprecated"`

	Kwargs map[string]any `yaml:"kwargs" json:"kwargs"`

	// OutputCols declares a validation's result columns.
	OutputCols []string `yaml:"output_cols" json:"output_cols"`
}

// Load reads the plan at path, choosing the format by extension.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var p *Plan
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err = ParseYAML(data)
	case ".cue":
		p, err = ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("plan %s: unsupported format (want .yaml, .yml or .cue)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	p.Dir = filepath.Dir(path)
	p.resolvePaths()
	return p, nil
}

// ParseYAML decodes a YAML plan. Unknown fields are rejected.
func ParseYAML(data []byte) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &p, nil
}

// ParseCUE evaluates a CUE plan and decodes its JSON export. filename is
// used in error positions.
func ParseCUE(data []byte, filename string) (*Plan, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile CUE: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate CUE: %w", err)
	}
	raw, err := value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export CUE: %w", err)
	}

	var p Plan
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode CUE export: %w", err)
	}
	p.RunParams = normalizeMap(p.RunParams)
	for i := range p.Models {
		p.Models[i].Kwargs = normalizeMap(p.Models[i].Kwargs)
	}
	for i := range p.Validations {
		p.Validations[i].Kwargs = normalizeMap(p.Validations[i].Kwargs)
	}
	return &p, nil
}

// RunOptions returns the engine options the plan describes.
func (p *Plan) RunOptions() engine.RunOptions {
	return engine.RunOptions{
		ForceRerun:   p.ForceRerun,
		ArtefactsDir: p.ArtefactsDir,
		RunParams:    p.RunParams,
		Workers:      p.Workers,
	}
}

func (p *Plan) resolvePaths() {
	if p.ResultsPath == "" {
		p.ResultsPath = DefaultResultsPath
	}
	p.ResultsPath = resolve(p.Dir, p.ResultsPath)
	if p.ArtefactsDir != "" {
		p.ArtefactsDir = resolve(p.Dir, p.ArtefactsDir)
	}
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// normalizeMap converts json.Number values to int or float64 so that CUE
// plans carry the same Go types as YAML plans.
func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		return normalizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
