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

package log

import (
	"log/slog"
	"time"
)

// APIRequest describes an outbound API call for logging purposes.
// Headers are never logged; they carry credentials.
type APIRequest struct {
	Method string
	URL    string

	// HasBody reports whether a body was attached.
	HasBody bool
}

// APIResponse describes the outcome of an outbound API call.
type APIResponse struct {
	StatusCode int
	RequestID  string
	Duration   time.Duration
	Err        error
}

// LogAPIRequest logs an outbound API request at debug level.
func LogAPIRequest(logger *slog.Logger, req *APIRequest) {
	logger.Debug("api request",
		EventKey, "api_request",
		"method", req.Method,
		"url", SanitizeURL(req.URL),
		"has_body", req.HasBody,
	)
}

// LogAPIResponse logs the outcome of an outbound API request. Failures are
// logged at warn so they show up without enabling debug.
func LogAPIResponse(logger *slog.Logger, req *APIRequest, resp *APIResponse) {
	attrs := []any{
		EventKey, "api_response",
		"method", req.Method,
		"url", SanitizeURL(req.URL),
		"status", resp.StatusCode,
		DurationKey, resp.Duration.Milliseconds(),
	}
	if resp.RequestID != "" {
		attrs = append(attrs, "request_id", resp.RequestID)
	}

	if resp.Err != nil {
		attrs = append(attrs, "error", resp.Err.Error())
		logger.Warn("api request failed", attrs...)
		return
	}
	logger.Debug("api response", attrs...)
}
