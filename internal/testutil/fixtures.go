package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/gauntlet/internal/registry"
	"github.com/roach88/gauntlet/internal/results"
)

// Model is a trivial model whose only behaviour is a fixed score.
type Model struct {
	Name  string
	Score float64
}

// Counter counts calls by key.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Inc records one call for key.
func (c *Counter) Inc(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
}

// Get returns the number of calls recorded for key.
func (c *Counter) Get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// Total returns the number of calls across all keys.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

// ModelFactory returns a factory for a Model named name. A "score" kwarg
// overrides score. Every call is counted under name when c is non-nil.
func ModelFactory(name string, score float64, c *Counter) registry.Factory[*Model] {
	return func(kw registry.Kwargs) (*Model, error) {
		if c != nil {
			c.Inc(name)
		}
		cfg := struct {
			Score float64 `mapstructure:"score"`
		}{Score: score}
		if err := kw.Decode(&cfg); err != nil {
			return nil, err
		}
		return &Model{Name: name, Score: cfg.Score}, nil
	}
}

// ScoreValidation returns a validation factory producing {col: model score
// times factor}. Every run is counted under the pair "validation/model"
// when c is non-nil.
func ScoreValidation(id, col string, factor float64, c *Counter) registry.Factory[registry.Validation[*Model]] {
	return func(registry.Kwargs) (registry.Validation[*Model], error) {
		return func(_ context.Context, m *Model, _ registry.Call) (results.Row, error) {
			if c != nil {
				c.Inc(id + "/" + m.Name)
			}
			return results.Row{col: results.Float(m.Score * factor)}, nil
		}, nil
	}
}

// ErrValidationFailed is returned by FailingValidation.
var ErrValidationFailed = errors.New("validation failed")

// FailingValidation returns a validation factory whose validation fails on
// the model named failOn and scores every other model under col.
func FailingValidation(col, failOn string) registry.Factory[registry.Validation[*Model]] {
	return func(registry.Kwargs) (registry.Validation[*Model], error) {
		return func(_ context.Context, m *Model, _ registry.Call) (results.Row, error) {
			if m.Name == failOn {
				return nil, ErrValidationFailed
			}
			return results.Row{col: results.Float(m.Score)}, nil
		}, nil
	}
}

// RowValidation returns a validation factory that always returns row.
func RowValidation(row results.Row) registry.Factory[registry.Validation[*Model]] {
	return func(registry.Kwargs) (registry.Validation[*Model], error) {
		return func(context.Context, *Model, registry.Call) (results.Row, error) {
			return row.Clone(), nil
		}, nil
	}
}
