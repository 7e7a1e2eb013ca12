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
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the default maximum secret file size (64KB).
const MaxFileSize = 64 * 1024

// FileProviderConfig controls which files may be read.
type FileProviderConfig struct {
	// Allowlist restricts readable paths by prefix. Empty allows any
	// absolute path.
	Allowlist []string

	// MaxSize is the maximum file size in bytes. Default: 64KB
	MaxSize int64
}

// FileProvider resolves secrets from file contents.
type FileProvider struct {
	config FileProviderConfig
}

// NewFileProvider creates a file provider.
func NewFileProvider(config FileProviderConfig) *FileProvider {
	if config.MaxSize == 0 {
		config.MaxSize = MaxFileSize
	}
	return &FileProvider{config: config}
}

// Scheme returns "file".
func (f *FileProvider) Scheme() string {
	return "file"
}

// Resolve reads the file at path and returns its contents with trailing
// whitespace trimmed.
func (f *FileProvider) Resolve(_ context.Context, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", newResolutionError(ErrorCategoryInvalidSyntax, "file", path, "path must be absolute", nil)
	}
	clean := filepath.Clean(path)
	if !f.allowed(clean) {
		return "", newResolutionError(ErrorCategoryAccessDenied, "file", path, "path not in allowlist", nil)
	}

	fh, err := os.Open(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return "", newResolutionError(ErrorCategoryNotFound, "file", path, "secret file not found", err)
		}
		return "", newResolutionError(ErrorCategoryAccessDenied, "file", path, "secret file not readable", err)
	}
	defer fh.Close()

	data, err := io.ReadAll(io.LimitReader(fh, f.config.MaxSize+1))
	if err != nil {
		return "", newResolutionError(ErrorCategoryAccessDenied, "file", path, "secret file not readable", err)
	}
	if int64(len(data)) > f.config.MaxSize {
		return "", newResolutionError(ErrorCategoryInvalidSyntax, "file", path, "secret file too large", nil)
	}

	return strings.TrimRight(string(data), " \t\r\n"), nil
}

func (f *FileProvider) allowed(path string) bool {
	if len(f.config.Allowlist) == 0 {
		return true
	}
	for _, prefix := range f.config.Allowlist {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, string(filepath.Separator))+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
