package registry

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Kwargs are named construction arguments passed to a Factory.
type Kwargs map[string]any

// Clone returns a shallow copy of k. A nil Kwargs clones to an empty map.
func (k Kwargs) Clone() Kwargs {
	out := make(Kwargs, len(k))
	for key, v := range k {
		out[key] = v
	}
	return out
}

// Merge returns k overlaid with override. Neither input is modified.
func (k Kwargs) Merge(override Kwargs) Kwargs {
	out := k.Clone()
	for key, v := range override {
		out[key] = v
	}
	return out
}

// Decode fills target (a pointer to a struct) from k. Field names follow
// `mapstructure` tags; numeric and string values are converted weakly, so
// a YAML integer can populate a float field. Keys with no matching field
// are an error.
func (k Kwargs) Decode(target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("decode kwargs: %w", err)
	}
	if err := dec.Decode(map[string]any(k)); err != nil {
		return fmt.Errorf("decode kwargs: %w", err)
	}
	return nil
}
