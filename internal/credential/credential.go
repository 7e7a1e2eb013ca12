// Package credential holds the credential sets adapters authenticate with.
package credential

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// ErrNotConfigured is returned when no credential of the requested type is
// available.
var ErrNotConfigured = errors.New("credential not configured")

// Credential is a named set of secrets bound to one credential type, such as
// fetiasApi. Adapters treat it as read-only.
type Credential struct {
	Type string
	Data map[string]any
}

// String returns the field as a string, or "" when absent.
func (c *Credential) String(key string) string {
	if c == nil || c.Data == nil {
		return ""
	}
	return cast.ToString(c.Data[key])
}

// Decode decodes the credential fields into out, a pointer to a struct
// tagged with mapstructure tags.
func (c *Credential) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(c.Data); err != nil {
		return fmt.Errorf("decode %s credential: %w", c.Type, err)
	}
	return nil
}

// Source looks up the active credential for a credential type.
type Source interface {
	Credential(ctx context.Context, credentialType string) (*Credential, error)
}

// Static is an in-memory Source keyed by credential type.
type Static map[string]map[string]any

// Credential implements Source.
func (s Static) Credential(_ context.Context, credentialType string) (*Credential, error) {
	data, ok := s[credentialType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, credentialType)
	}
	return &Credential{Type: credentialType, Data: data}, nil
}

// Types returns the configured credential types, sorted.
func (s Static) Types() []string {
	types := make([]string, 0, len(s))
	for t := range s {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
