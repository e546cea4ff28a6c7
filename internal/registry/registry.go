package registry

import (
	"log/slog"
)

// Kind distinguishes model registries from validation registries.
type Kind int

const (
	// KindModel registries ignore declared output columns.
	KindModel Kind = iota
	// KindValidation registries record declared output columns.
	KindValidation
)

func (k Kind) String() string {
	if k == KindValidation {
		return "validation"
	}
	return "model"
}

// Registry maps entity IDs to Specs in registration order.
//
// A Registry is built during start-up and read-only during runs; it is not
// safe for concurrent Register calls.
type Registry[T any] struct {
	kind    Kind
	catalog *Catalog[T]
	logger  *slog.Logger

	specs map[string]Spec[T]
	order []string
}

// Option configures a Registry.
type Option[T any] func(*Registry[T])

// WithCatalog sets the catalog that Ref entry points resolve against.
func WithCatalog[T any](c *Catalog[T]) Option[T] {
	return func(r *Registry[T]) {
		r.catalog = c
	}
}

// WithLogger sets the registry's logger.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(r *Registry[T]) {
		r.logger = l
	}
}

// NewRegistry creates an empty model-kind registry.
func NewRegistry[T any](opts ...Option[T]) *Registry[T] {
	return newRegistry(KindModel, opts...)
}

func newRegistry[T any](kind Kind, opts ...Option[T]) *Registry[T] {
	r := &Registry[T]{
		kind:   kind,
		logger: slog.Default(),
		specs:  make(map[string]Spec[T]),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns the registry's kind.
func (r *Registry[T]) Kind() Kind {
	return r.kind
}

// Catalog returns the catalog Ref entries resolve against, possibly nil.
func (r *Registry[T]) Catalog() *Catalog[T] {
	return r.catalog
}

// Register validates id and stores a new Spec. It fails without changing
// the registry when id is malformed or already present.
func (r *Registry[T]) Register(id string, entry EntryPoint[T], opts ...RegisterOption) error {
	if _, err := ParseID(id); err != nil {
		return err
	}
	if _, exists := r.specs[id]; exists {
		return newDuplicateIDError(id)
	}

	var cfg registerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if entry == nil {
		entry = Defunct[T]()
	}

	spec := Spec[T]{
		ID:         id,
		Entry:      entry,
		Kwargs:     cfg.kwargs.Clone(),
		deprecated: cfg.deprecated,
	}
	if r.kind == KindValidation {
		spec.OutputCols = cfg.outputCols
		if len(spec.OutputCols) == 0 {
			spec.OutputCols = append([]string(nil), DefaultOutputCols...)
		}
	}

	r.specs[id] = spec
	r.order = append(r.order, id)
	r.logger.Debug("registered entity", "kind", r.kind.String(), "id", id, "deprecated", spec.Deprecated())
	return nil
}

// MustRegister is Register that panics on error, for static setup code.
func (r *Registry[T]) MustRegister(id string, entry EntryPoint[T], opts ...RegisterOption) {
	if err := r.Register(id, entry, opts...); err != nil {
		panic(err)
	}
}

// Make constructs a fresh instance of id. callKwargs override the spec's
// fixed kwargs key by key.
func (r *Registry[T]) Make(id string, callKwargs Kwargs) (T, error) {
	spec, ok := r.specs[id]
	if !ok {
		var zero T
		return zero, newNotFoundError(id)
	}
	r.logger.Debug("making entity", "kind", r.kind.String(), "id", id)
	return spec.make(r.catalog, callKwargs)
}

// Get returns a copy of the spec for id.
func (r *Registry[T]) Get(id string) (Spec[T], bool) {
	spec, ok := r.specs[id]
	if !ok {
		return Spec[T]{}, false
	}
	return spec.clone(), true
}

// All returns copies of every spec in registration order.
func (r *Registry[T]) All() []Spec[T] {
	out := make([]Spec[T], 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.specs[id].clone())
	}
	return out
}

// Len returns the number of registered specs.
func (r *Registry[T]) Len() int {
	return len(r.order)
}
