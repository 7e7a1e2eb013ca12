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

package shared

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tombee/nodekit/internal/node"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitExecutionFailed},
		{"invalid input", NewInvalidInputError("bad items", nil), ExitInvalidInput},
		{"auth", node.NewAuthError("No credentials got returned!"), ExitAuthError},
		{"api", &node.Error{Type: node.ErrorTypeAPI, Message: "nope", StatusCode: http.StatusNotFound}, ExitAPIError},
		{"operation", node.NewOperationError("the parameter %q is required", "module"), ExitInvalidInput},
		{"wrapped api", NewExecutionError("run failed", &node.Error{Type: node.ErrorTypeAPI, Message: "nope"}), ExitAPIError},
		{"wrapped plain", fmt.Errorf("context: %w", errors.New("x")), ExitExecutionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("file not found")
	err := NewInvalidInputError("cannot read items", cause)

	if err.Error() != "cannot read items: file not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected ExitError to unwrap to its cause")
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, &node.Error{
		Type:       node.ErrorTypeAPI,
		Message:    "Form not found",
		StatusCode: http.StatusNotFound,
		RequestID:  "req-1",
	})

	want := "Error: Form not found\n  status:     404\n  request id: req-1\n"
	if buf.String() != want {
		t.Errorf("printError() = %q, want %q", buf.String(), want)
	}
}
