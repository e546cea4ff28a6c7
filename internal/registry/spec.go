package registry

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultOutputCols is the output layout of a validation that declares none.
var DefaultOutputCols = []string{"result"}

// Spec is the immutable registration record of one entity.
type Spec[T any] struct {
	ID     string
	Entry  EntryPoint[T]
	Kwargs Kwargs

	// OutputCols is set only by validation registries.
	OutputCols []string

	deprecated bool
}

// Deprecated reports whether the entity is retired, either by a Defunct
// entry point or by the Deprecated registration option.
func (s Spec[T]) Deprecated() bool {
	if s.deprecated {
		return true
	}
	_, defunct := s.Entry.(DefunctEntry[T])
	return defunct
}

func (s Spec[T]) String() string {
	return fmt.Sprintf("Spec(%s)", s.ID)
}

// clone copies the mutable parts so callers cannot alter the registry.
func (s Spec[T]) clone() Spec[T] {
	s.Kwargs = s.Kwargs.Clone()
	s.OutputCols = slices.Clone(s.OutputCols)
	return s
}

// make resolves the entry point and calls it with fixed kwargs overlaid by
// call-time kwargs.
func (s Spec[T]) make(catalog *Catalog[T], call Kwargs) (T, error) {
	var zero T
	if s.deprecated {
		return zero, newDeprecatedError(s.ID)
	}

	var factory Factory[T]
	switch entry := s.Entry.(type) {
	case DefunctEntry[T]:
		return zero, newDeprecatedError(s.ID)
	case FuncEntry[T]:
		factory = entry.Factory
	case RefEntry[T]:
		f, err := catalog.Resolve(entry.Ref)
		if err != nil {
			var re *Error
			if errors.As(err, &re) {
				re.ID = s.ID
			}
			return zero, err
		}
		factory = f
	default:
		return zero, &Error{
			Code:    ErrCodeUnresolvable,
			ID:      s.ID,
			Message: fmt.Sprintf("entity %q has unknown entry point type %T", s.ID, s.Entry),
		}
	}

	inst, err := factory(s.Kwargs.Merge(call))
	if err != nil {
		return zero, fmt.Errorf("make %s: %w", s.ID, err)
	}
	return inst, nil
}

// RegisterOption customizes a registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	kwargs     Kwargs
	deprecated bool
	outputCols []string
}

// WithKwargs sets the fixed construction kwargs.
func WithKwargs(kwargs Kwargs) RegisterOption {
	return func(c *registerConfig) {
		c.kwargs = kwargs.Clone()
	}
}

// Deprecated flags the entity as retired regardless of its entry point.
func Deprecated() RegisterOption {
	return func(c *registerConfig) {
		c.deprecated = true
	}
}

// WithOutputCols declares the result columns a validation produces.
// Model registries ignore it.
func WithOutputCols(cols ...string) RegisterOption {
	return func(c *registerConfig) {
		c.outputCols = slices.Clone(cols)
	}
}
