package engine

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gauntlet/internal/results"
)

// SkipPolicy decides whether a pair with a prior result is run again.
type SkipPolicy interface {
	// Skip reports whether pair should not run. prior is true when the
	// existing results already hold a row for pair.
	Skip(pair results.Pair, prior bool) bool
}

// ForceRerun selects which prior results are recomputed. The zero value
// reruns nothing.
type ForceRerun struct {
	all    bool
	models []string
}

var _ SkipPolicy = ForceRerun{}

// RerunNone skips every pair that already has a result.
func RerunNone() ForceRerun {
	return ForceRerun{}
}

// RerunAll runs every pair regardless of prior results.
func RerunAll() ForceRerun {
	return ForceRerun{all: true}
}

// RerunModels reruns every pair whose model is one of ids.
func RerunModels(ids ...string) ForceRerun {
	return ForceRerun{models: slices.Clone(ids)}
}

// ParseForceRerun reads the command-line form: "" for none, "all", or a
// comma-separated list of model IDs.
func ParseForceRerun(s string) (ForceRerun, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "none":
		return RerunNone(), nil
	case "all":
		return RerunAll(), nil
	}
	var ids []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return ForceRerun{}, fmt.Errorf("force rerun %q: empty model ID", s)
		}
		ids = append(ids, part)
	}
	return RerunModels(ids...), nil
}

// All reports whether every pair is rerun.
func (f ForceRerun) All() bool {
	return f.all
}

// Models returns the model IDs forced to rerun.
func (f ForceRerun) Models() []string {
	return slices.Clone(f.models)
}

// Skip implements SkipPolicy.
func (f ForceRerun) Skip(pair results.Pair, prior bool) bool {
	if f.all || !prior {
		return false
	}
	return !slices.Contains(f.models, pair.ModelID)
}

// String returns the form accepted by ParseForceRerun.
func (f ForceRerun) String() string {
	if f.all {
		return "all"
	}
	return strings.Join(f.models, ",")
}

// UnmarshalJSON accepts "all", "", null or a list of model IDs.
func (f *ForceRerun) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return f.fromString(s)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("force_rerun must be \"all\" or a list of model IDs: %w", err)
	}
	*f = RerunModels(ids...)
	return nil
}

// UnmarshalYAML accepts "all", an empty value or a sequence of model IDs.
func (f *ForceRerun) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*f = RerunNone()
			return nil
		}
		return f.fromString(node.Value)
	case yaml.SequenceNode:
		var ids []string
		if err := node.Decode(&ids); err != nil {
			return fmt.Errorf("force_rerun: %w", err)
		}
		*f = RerunModels(ids...)
		return nil
	default:
		return fmt.Errorf("line %d: force_rerun must be \"all\" or a list of model IDs", node.Line)
	}
}

func (f *ForceRerun) fromString(s string) error {
	switch s {
	case "":
		*f = RerunNone()
	case "all":
		*f = RerunAll()
	default:
		return fmt.Errorf("force_rerun %q: expected \"all\" or a list of model IDs", s)
	}
	return nil
}
