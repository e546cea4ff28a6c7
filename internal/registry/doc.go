// Package registry maps versioned entity IDs to deferred construction
// recipes.
//
// The same generic Registry serves models and validations. An ID has the
// form [namespace/]name-v<version> and is checked when it is registered,
// never when it is used. Each registration stores a Spec: the ID, an entry
// point, fixed keyword arguments and, for validations, the declared output
// columns. Make builds a fresh instance on every call; the registry never
// holds instances.
//
// Entry points come in three variants:
//
//	Func(f)                 // a factory referenced directly
//	Ref("module:attribute") // a factory looked up in a Catalog at Make time
//	Defunct()               // the entity has been retired
//
// A Catalog is the compiled table of named factories that Ref strings
// resolve against. It is assembled at start-up, typically by a package that
// provides built-in entities.
package registry
