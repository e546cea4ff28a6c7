package registry

import (
	"fmt"
	"slices"
	"strings"
)

// Catalog is a compiled table of named factories. Ref entry points of the
// form "module:attribute" resolve against it.
//
// A Catalog is filled once at start-up and read-only afterwards.
type Catalog[T any] struct {
	modules map[string]map[string]Factory[T]
}

// NewCatalog creates an empty catalog.
func NewCatalog[T any]() *Catalog[T] {
	return &Catalog[T]{modules: make(map[string]map[string]Factory[T])}
}

// Add registers factory f as module:attr. It panics on a duplicate name,
// since that is a programming error in the catalog's assembly.
func (c *Catalog[T]) Add(module, attr string, f Factory[T]) *Catalog[T] {
	if module == "" || attr == "" || f == nil {
		panic(fmt.Sprintf("catalog: invalid entry %q:%q", module, attr))
	}
	attrs, ok := c.modules[module]
	if !ok {
		attrs = make(map[string]Factory[T])
		c.modules[module] = attrs
	}
	if _, exists := attrs[attr]; exists {
		panic(fmt.Sprintf("catalog: %s:%s already added", module, attr))
	}
	attrs[attr] = f
	return c
}

// Resolve looks up a "module:attribute" reference.
func (c *Catalog[T]) Resolve(ref string) (Factory[T], error) {
	idx := strings.LastIndex(ref, ":")
	if idx <= 0 || idx == len(ref)-1 {
		return nil, &Error{
			Code:    ErrCodeUnresolvable,
			Message: fmt.Sprintf("entry point %q must have the form module:attribute", ref),
		}
	}
	module, attr := ref[:idx], ref[idx+1:]

	if c == nil {
		return nil, &Error{
			Code:    ErrCodeUnresolvable,
			Message: fmt.Sprintf("no module %q: registry has no catalog", module),
		}
	}
	attrs, ok := c.modules[module]
	if !ok {
		return nil, &Error{
			Code:    ErrCodeUnresolvable,
			Message: fmt.Sprintf("no module %q in catalog", module),
		}
	}
	f, ok := attrs[attr]
	if !ok {
		return nil, &Error{
			Code:    ErrCodeUnresolvable,
			Message: fmt.Sprintf("module %q has no attribute %q", module, attr),
		}
	}
	return f, nil
}

// Has reports whether ref resolves.
func (c *Catalog[T]) Has(ref string) bool {
	_, err := c.Resolve(ref)
	return err == nil
}

// Refs lists every "module:attribute" in sorted order.
func (c *Catalog[T]) Refs() []string {
	if c == nil {
		return nil
	}
	var refs []string
	for module, attrs := range c.modules {
		for attr := range attrs {
			refs = append(refs, module+":"+attr)
		}
	}
	slices.Sort(refs)
	return refs
}
