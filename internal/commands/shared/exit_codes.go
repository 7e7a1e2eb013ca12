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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/nodekit/internal/node"
)

// Exit codes for nodekit commands
const (
	ExitSuccess         = 0
	ExitExecutionFailed = 1
	ExitInvalidInput    = 2
	ExitAuthError       = 3
	ExitAPIError        = 4
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExecutionError creates an error for adapter run failures
func NewExecutionError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitExecutionFailed, Message: msg, Cause: cause}
}

// NewInvalidInputError creates an error for unreadable items, params or
// config files
func NewInvalidInputError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitInvalidInput, Message: msg, Cause: cause}
}

// ExitCode returns the exit code for err. ExitErrors carry their own code;
// node errors map by type.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != ExitExecutionFailed {
		return exitErr.Code
	}

	var nodeErr *node.Error
	if errors.As(err, &nodeErr) {
		switch nodeErr.Type {
		case node.ErrorTypeAuth:
			return ExitAuthError
		case node.ErrorTypeAPI:
			return ExitAPIError
		case node.ErrorTypeOperation:
			return ExitInvalidInput
		}
	}
	return ExitExecutionFailed
}

// HandleExitError prints err and exits with the matching code
func HandleExitError(err error) {
	if err == nil {
		return
	}
	printError(os.Stderr, err)
	os.Exit(ExitCode(err))
}

// printError writes the error and, for API errors, the response detail.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err.Error())

	var nodeErr *node.Error
	if errors.As(err, &nodeErr) {
		if nodeErr.StatusCode != 0 {
			fmt.Fprintf(w, "  status:     %d\n", nodeErr.StatusCode)
		}
		if nodeErr.RequestID != "" {
			fmt.Fprintf(w, "  request id: %s\n", nodeErr.RequestID)
		}
		if nodeErr.Description != "" && GetVerbose() {
			fmt.Fprintf(w, "  response:   %s\n", nodeErr.Description)
		}
	}
}
