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
	"os"
)

const plainScheme = "plain"

// plainProvider returns the reference itself.
type plainProvider struct{}

func (plainProvider) Scheme() string { return plainScheme }

func (plainProvider) Resolve(_ context.Context, key string) (string, error) {
	return key, nil
}

// EnvProvider resolves secrets from environment variables.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates an environment variable provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// Scheme returns "env".
func (e *EnvProvider) Scheme() string {
	return "env"
}

// Resolve returns the value of the named environment variable. An unset or
// empty variable is reported as not found.
func (e *EnvProvider) Resolve(_ context.Context, name string) (string, error) {
	value, ok := e.lookup(name)
	if !ok || value == "" {
		return "", newResolutionError(ErrorCategoryNotFound, "env", name, "environment variable not set", nil)
	}
	return value, nil
}
