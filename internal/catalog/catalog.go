package catalog

import (
	"github.com/roach88/gauntlet/internal/registry"
)

// Module paths used in entry-point references.
const (
	ModelsModule      = "gauntlet/catalog/models"
	ValidationsModule = "gauntlet/catalog/validations"
)

// Validation is a validation over catalog classifiers.
type Validation = registry.Validation[Classifier]

// Models returns a catalog of the built-in classifiers.
func Models() *registry.Catalog[Classifier] {
	return registry.NewCatalog[Classifier]().
		Add(ModelsModule, "LinearSVC", classifierFactory(NewLinearSVC)).
		Add(ModelsModule, "NearestCentroid", classifierFactory(func() *NearestCentroid { return &NearestCentroid{} })).
		Add(ModelsModule, "Majority", classifierFactory(func() *Majority { return &Majority{} }))
}

// Validations returns a catalog of the built-in validations.
func Validations() *registry.Catalog[Validation] {
	return registry.NewCatalog[Validation]().
		Add(ValidationsModule, "CrossValidation", func(kw registry.Kwargs) (Validation, error) {
			cv := NewCrossValidation()
			if err := kw.Decode(cv); err != nil {
				return nil, err
			}
			return cv.Run, nil
		}).
		Add(ValidationsModule, "Holdout", func(kw registry.Kwargs) (Validation, error) {
			h := NewHoldout()
			if err := kw.Decode(h); err != nil {
				return nil, err
			}
			return h.Run, nil
		})
}

// Ref returns the entry-point reference for attr in module.
func Ref(module, attr string) string {
	return module + ":" + attr
}

// classifierFactory builds a Factory that starts from the defaults returned
// by newFn and overlays kwargs.
func classifierFactory[C Classifier](newFn func() C) registry.Factory[Classifier] {
	return func(kw registry.Kwargs) (Classifier, error) {
		m := newFn()
		if err := kw.Decode(m); err != nil {
			return nil, err
		}
		return m, nil
	}
}
