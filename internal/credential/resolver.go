package credential

import (
	"context"
	"fmt"
)

// SecretResolver turns a secret reference into its value.
type SecretResolver interface {
	Resolve(ctx context.Context, reference string) (string, error)
}

// Resolver is a Source backed by configured secret references, e.g.
//
//	credentials:
//	  fetiasApi:
//	    apiKey: env:FETIAS_API_KEY
//
// References are resolved on every lookup so rotated secrets are picked up.
type Resolver struct {
	refs    map[string]map[string]string
	secrets SecretResolver
}

// NewResolver creates a Resolver over the reference map.
func NewResolver(refs map[string]map[string]string, secrets SecretResolver) *Resolver {
	return &Resolver{refs: refs, secrets: secrets}
}

// Credential implements Source.
func (r *Resolver) Credential(ctx context.Context, credentialType string) (*Credential, error) {
	fields, ok := r.refs[credentialType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, credentialType)
	}

	data := make(map[string]any, len(fields))
	for name, ref := range fields {
		value, err := r.secrets.Resolve(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("resolve %s.%s: %w", credentialType, name, err)
		}
		data[name] = value
	}
	return &Credential{Type: credentialType, Data: data}, nil
}
