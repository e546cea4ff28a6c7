package registry

// Factory constructs one entity instance from merged kwargs.
type Factory[T any] func(kwargs Kwargs) (T, error)

// EntryPoint describes how a Spec constructs its entity. It is one of
// FuncEntry, RefEntry or DefunctEntry.
type EntryPoint[T any] interface {
	entryPoint()
}

// FuncEntry references a factory directly.
type FuncEntry[T any] struct {
	Factory Factory[T]
}

// RefEntry names a factory in the registry's Catalog as "module:attribute".
type RefEntry[T any] struct {
	Ref string
}

// DefunctEntry marks an entity that has been retired.
type DefunctEntry[T any] struct{}

func (FuncEntry[T]) entryPoint()    {}
func (RefEntry[T]) entryPoint()     {}
func (DefunctEntry[T]) entryPoint() {}

// Func wraps a factory as an entry point. A nil factory is treated as Defunct.
func Func[T any](f Factory[T]) EntryPoint[T] {
	if f == nil {
		return DefunctEntry[T]{}
	}
	return FuncEntry[T]{Factory: f}
}

// Ref names a catalog factory, resolved lazily on Make. An empty ref is
// treated as Defunct.
func Ref[T any](ref string) EntryPoint[T] {
	if ref == "" {
		return DefunctEntry[T]{}
	}
	return RefEntry[T]{Ref: ref}
}

// Defunct marks a retired entity. Make on it always fails.
func Defunct[T any]() EntryPoint[T] {
	return DefunctEntry[T]{}
}
