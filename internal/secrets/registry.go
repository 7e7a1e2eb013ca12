// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Registry routes secret references to providers by scheme.
type Registry struct {
	providers map[string]Provider
}

var (
	// shellEnvVarRegex matches ${VAR_NAME} syntax
	shellEnvVarRegex = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

	// schemeRegex matches scheme:reference format
	schemeRegex = regexp.MustCompile(`^([a-z][a-z0-9]*):(.*)$`)
)

// NewRegistry creates an empty registry. Plain values are always accepted.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	r.providers[plainScheme] = plainProvider{}
	return r
}

// NewDefaultRegistry returns a registry with the env, file and keychain
// providers registered. keychainService names the keychain service entries
// are looked up under.
func NewDefaultRegistry(keychainService string) *Registry {
	r := NewRegistry()
	_ = r.Register(NewEnvProvider())
	_ = r.Register(NewFileProvider(FileProviderConfig{}))
	_ = r.Register(NewKeychainProvider(keychainService))
	return r
}

// Register adds a provider. A scheme can only be registered once.
func (r *Registry) Register(provider Provider) error {
	scheme := provider.Scheme()
	if _, exists := r.providers[scheme]; exists {
		return fmt.Errorf("provider for scheme %q already registered", scheme)
	}
	r.providers[scheme] = provider
	return nil
}

// Resolve returns the value a reference points to.
func (r *Registry) Resolve(ctx context.Context, reference string) (string, error) {
	scheme, key, err := parseReference(reference)
	if err != nil {
		return "", &ResolutionError{
			Category: ErrorCategoryInvalidSyntax,
			Message:  "invalid secret reference syntax",
			Cause:    err,
		}
	}

	provider, ok := r.providers[scheme]
	if !ok {
		// Unknown schemes are literal values containing a colon,
		// e.g. "https://tenant.halopsa.com".
		return reference, nil
	}

	value, err := provider.Resolve(ctx, key)
	if err != nil {
		var rerr *ResolutionError
		if errors.As(err, &rerr) {
			return "", rerr
		}
		return "", newResolutionError(ErrorCategoryNotFound, scheme, key, "secret resolution failed", err)
	}
	return value, nil
}

// parseReference extracts the scheme and key from a reference.
func parseReference(reference string) (scheme, key string, err error) {
	if reference == "" {
		return "", "", fmt.Errorf("empty reference")
	}

	if matches := shellEnvVarRegex.FindStringSubmatch(reference); matches != nil {
		return "env", matches[1], nil
	}

	if matches := schemeRegex.FindStringSubmatch(reference); matches != nil {
		if strings.TrimSpace(matches[2]) == "" {
			return "", "", fmt.Errorf("empty key for scheme %q", matches[1])
		}
		return matches[1], matches[2], nil
	}

	return plainScheme, reference, nil
}
