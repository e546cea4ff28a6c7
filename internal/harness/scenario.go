package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gauntlet/internal/engine"
)

// Scenario defines a conformance scenario: a plan, a sequence of runs over
// one results table, and assertions on what ran and what was kept.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Plan is the path of the run plan, relative to the scenario file.
	Plan string `yaml:"plan"`

	// Results names the results file inside the scenario's work directory.
	// The extension picks the store backend. Default: "results.csv".
	Results string `yaml:"results,omitempty"`

	// Steps are runs executed in order against the same results table.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final table, artefacts and job history.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one run of the plan.
type Step struct {
	Name string `yaml:"name"`

	// ForceRerun overrides the plan's force_rerun when set.
	ForceRerun *engine.ForceRerun `yaml:"force_rerun,omitempty"`

	// Parallel overrides the plan's parallel flag when set.
	Parallel *bool `yaml:"parallel,omitempty"`

	// ExpectRan is the number of jobs the step must execute. Nil skips
	// the check.
	ExpectRan *int `yaml:"expect_ran,omitempty"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type selects the check:
	// - "row_count": the final table has Count rows
	// - "has_pair": a row exists for Validation/Model
	// - "missing_pair": no row exists for Validation/Model
	// - "columns": the final table has exactly Columns, in order
	// - "cell_range": the Column cell of a pair lies in [Min, Max]
	// - "ran": jobs matching Validation/Model ran Count times in total
	// - "artefact": File exists in the pair's model artefacts directory
	Type string `yaml:"type"`

	Validation string   `yaml:"validation,omitempty"`
	Model      string   `yaml:"model,omitempty"`
	Column     string   `yaml:"column,omitempty"`
	Columns    []string `yaml:"columns,omitempty"`
	Count      int      `yaml:"count,omitempty"`
	Min        float64  `yaml:"min,omitempty"`
	Max        float64  `yaml:"max,omitempty"`
	File       string   `yaml:"file,omitempty"`
}

// Assertion type constants.
const (
	AssertRowCount    = "row_count"
	AssertHasPair     = "has_pair"
	AssertMissingPair = "missing_pair"
	AssertColumns     = "columns"
	AssertCellRange   = "cell_range"
	AssertRan         = "ran"
	AssertArtefact    = "artefact"
)

// DefaultResults is the results file name used when a scenario names none.
const DefaultResults = "results.csv"

// LoadScenario reads and parses a scenario YAML file. The plan path is
// resolved relative to the scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Plan != "" && !filepath.IsAbs(scenario.Plan) {
		scenario.Plan = filepath.Join(filepath.Dir(path), scenario.Plan)
	}
	if scenario.Results == "" {
		scenario.Results = DefaultResults
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Plan == "" {
		return fmt.Errorf("plan is required")
	}
	if _, err := os.Stat(s.Plan); os.IsNotExist(err) {
		return fmt.Errorf("plan file not found: %s", s.Plan)
	}
	if filepath.Base(s.Results) != s.Results {
		return fmt.Errorf("results must be a file name, got %q", s.Results)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if step.ExpectRan != nil && *step.ExpectRan < 0 {
			return fmt.Errorf("steps[%d]: expect_ran must be non-negative", i)
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needPair := func() error {
		if a.Validation == "" || a.Model == "" {
			return fmt.Errorf("assertions[%d]: validation and model are required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertHasPair, AssertMissingPair:
		return needPair()
	case AssertColumns:
		if len(a.Columns) == 0 {
			return fmt.Errorf("assertions[%d]: columns list is required for columns", index)
		}
	case AssertCellRange:
		if err := needPair(); err != nil {
			return err
		}
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for cell_range", index)
		}
		if a.Min > a.Max {
			return fmt.Errorf("assertions[%d]: min %v exceeds max %v", index, a.Min, a.Max)
		}
	case AssertRan:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for ran", index)
		}
	case AssertArtefact:
		if err := needPair(); err != nil {
			return err
		}
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for artefact", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
