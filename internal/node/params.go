package node

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// Params resolves node parameters for a given input item. Expression
// evaluation happens in the host before values reach an adapter.
type Params interface {
	// Value returns the resolved parameter for the item at itemIndex.
	Value(name string, itemIndex int) (any, bool)
}

// StaticParams holds parameters that are identical for every item.
type StaticParams map[string]any

// Value implements Params.
func (p StaticParams) Value(name string, _ int) (any, bool) {
	return lookup(p, name)
}

// ItemParams holds shared parameters plus per-item overrides. PerItem[i]
// applies to input item i and wins over Shared.
type ItemParams struct {
	Shared  map[string]any   `json:"shared" yaml:"shared"`
	PerItem []map[string]any `json:"items" yaml:"items"`
}

// Value implements Params.
func (p *ItemParams) Value(name string, itemIndex int) (any, bool) {
	if itemIndex >= 0 && itemIndex < len(p.PerItem) {
		if v, ok := lookup(p.PerItem[itemIndex], name); ok {
			return v, true
		}
	}
	return lookup(p.Shared, name)
}

// lookup supports dotted paths into nested collections, e.g.
// "additionalFields.firstName".
func lookup(m map[string]any, name string) (any, bool) {
	if m == nil {
		return nil, false
	}
	if v, ok := m[name]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(name, ".")
	if !found {
		return nil, false
	}
	nested, ok := m[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(nested, rest)
}

// String returns a required, non-empty string parameter.
func String(p Params, name string, itemIndex int) (string, error) {
	v, ok := p.Value(name, itemIndex)
	if !ok || v == nil {
		return "", NewOperationError("the parameter %q is required", name)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", NewOperationError("the parameter %q must be a string: %v", name, err)
	}
	if s == "" {
		return "", NewOperationError("the parameter %q is required", name)
	}
	return s, nil
}

// StringOr returns an optional string parameter, or def when unset.
func StringOr(p Params, name string, itemIndex int, def string) (string, error) {
	v, ok := p.Value(name, itemIndex)
	if !ok || v == nil {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", NewOperationError("the parameter %q must be a string: %v", name, err)
	}
	return s, nil
}

// Bool returns an optional boolean parameter, or def when unset.
func Bool(p Params, name string, itemIndex int, def bool) (bool, error) {
	v, ok := p.Value(name, itemIndex)
	if !ok || v == nil {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, NewOperationError("the parameter %q must be a boolean: %v", name, err)
	}
	return b, nil
}

// Int returns an optional integer parameter, or def when unset.
func Int(p Params, name string, itemIndex int, def int) (int, error) {
	v, ok := p.Value(name, itemIndex)
	if !ok || v == nil {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, NewOperationError("the parameter %q must be a number: %v", name, err)
	}
	return n, nil
}

// Decode decodes a collection parameter into out. A missing parameter leaves
// out untouched.
func Decode(p Params, name string, itemIndex int, out any) error {
	v, ok := p.Value(name, itemIndex)
	if !ok || v == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(v); err != nil {
		return NewOperationError("the parameter %q is malformed: %v", name, err)
	}
	return nil
}
