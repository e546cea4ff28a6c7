package plan

import (
	"log/slog"

	"github.com/roach88/gauntlet/internal/registry"
)

// Build validates p and registers its entities, in declaration order, in
// fresh registries backed by the given catalogs. A nil logger means
// slog.Default().
func Build[M any](p *Plan, models *registry.Catalog[M], validations *registry.Catalog[registry.Validation[M]], logger *slog.Logger) (*registry.Registry[M], *registry.ValidationRegistry[M], error) {
	if err := Validate(p, models, validations); err != nil {
		return nil, nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	mreg := registry.NewRegistry(registry.WithCatalog(models), registry.WithLogger[M](logger))
	for _, e := range p.Models {
		if err := mreg.Register(e.ID, registry.Ref[M](e.EntryPoint), entityOptions(e)...); err != nil {
			return nil, nil, err
		}
	}

	vreg := registry.NewValidationRegistry(registry.WithCatalog(validations),
		registry.WithLogger[registry.Validation[M]](logger))
	for _, e := range p.Validations {
		if err := vreg.Register(e.ID, registry.Ref[registry.Validation[M]](e.EntryPoint), entityOptions(e)...); err != nil {
			return nil, nil, err
		}
	}
	return mreg, vreg, nil
}

func entityOptions(e Entity) []registry.RegisterOption {
	var opts []registry.RegisterOption
	if len(e.Kwargs) > 0 {
		opts = append(opts, registry.WithKwargs(registry.Kwargs(e.Kwargs)))
	}
	if e.Deprecated {
		opts = append(opts, registry.Deprecated())
	}
	if len(e.OutputCols) > 0 {
		opts = append(opts, registry.WithOutputCols(e.OutputCols...))
	}
	return opts
}
