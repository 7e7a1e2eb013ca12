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

package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)

	_, span := StartRequestSpan(context.Background(), p.Tracer(), "fetias", "GET", "https://example.test")
	assert.False(t, span.SpanContext().IsValid())
	EndRequestSpan(span, 200, nil)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProvider_ExportsRequestSpans(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewProvider(Config{Enabled: true, ServiceVersion: "test", Writer: &buf})
	require.NoError(t, err)

	_, span := StartRequestSpan(context.Background(), p.Tracer(), "halopsa", "DELETE", "https://halo.example.test/api/tickets/7")
	assert.True(t, span.SpanContext().IsValid())
	EndRequestSpan(span, 404, errors.New("The resource you are requesting could not be found"))
	require.NoError(t, p.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "DELETE halopsa")
	assert.Contains(t, out, AttrStatusCode)
	assert.Contains(t, out, "could not be found")
}

func TestStartRequestSpan_NilTracer(t *testing.T) {
	_, span := StartRequestSpan(context.Background(), nil, "a", "GET", "https://x.test")
	EndRequestSpan(span, 0, nil)
}
