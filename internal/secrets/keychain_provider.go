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

	"github.com/zalando/go-keyring"
)

// KeychainProvider resolves secrets from the system keychain (macOS
// Keychain, Secret Service on Linux, Windows Credential Manager).
type KeychainProvider struct {
	service string
	get     func(service, user string) (string, error)
}

// NewKeychainProvider creates a keychain provider reading entries stored
// under service.
func NewKeychainProvider(service string) *KeychainProvider {
	return &KeychainProvider{service: service, get: keyring.Get}
}

// Scheme returns "keychain".
func (k *KeychainProvider) Scheme() string {
	return "keychain"
}

// Resolve returns the keychain entry named key.
func (k *KeychainProvider) Resolve(_ context.Context, key string) (string, error) {
	value, err := k.get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", newResolutionError(ErrorCategoryNotFound, "keychain", key, "keychain entry not found", nil)
		}
		return "", newResolutionError(ErrorCategoryAccessDenied, "keychain", key, "keychain is locked or inaccessible", err)
	}
	return value, nil
}
