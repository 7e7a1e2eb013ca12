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

// Package secrets resolves the secret references used in credential
// configuration into their values.
//
// A reference names a provider by scheme:
//
//	env:FETIAS_API_KEY       environment variable
//	${FETIAS_API_KEY}        environment variable (shell syntax)
//	file:/run/secrets/key    file contents, trailing whitespace trimmed
//	keychain:fetias-api-key  system keychain entry
//	anything-else            literal value
//
// Providers are read-only. Storing secrets is the job of the host.
package secrets

import (
	"context"
	"fmt"
)

// Provider resolves references for one scheme.
type Provider interface {
	// Scheme returns the reference prefix this provider handles (e.g. "env").
	Scheme() string

	// Resolve returns the secret for key, the part after "scheme:".
	Resolve(ctx context.Context, key string) (string, error)
}

// ErrorCategory classifies resolution failures.
type ErrorCategory string

const (
	ErrorCategoryNotFound      ErrorCategory = "NOT_FOUND"
	ErrorCategoryAccessDenied  ErrorCategory = "ACCESS_DENIED"
	ErrorCategoryInvalidSyntax ErrorCategory = "INVALID_SYNTAX"
)

// ResolutionError reports a failed lookup without leaking the secret value.
type ResolutionError struct {
	Category  ErrorCategory
	Reference string
	Scheme    string
	Message   string

	// Cause may contain sensitive detail; log it, don't display it.
	Cause error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Scheme == "" {
		return fmt.Sprintf("[%s] %s", e.Category, e.Message)
	}
	return fmt.Sprintf("[%s] %s (scheme: %s)", e.Category, e.Message, e.Scheme)
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

func newResolutionError(category ErrorCategory, scheme, key, message string, cause error) *ResolutionError {
	return &ResolutionError{
		Category:  category,
		Reference: scheme + ":" + key,
		Scheme:    scheme,
		Message:   message,
		Cause:     cause,
	}
}
