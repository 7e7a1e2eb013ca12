// Package api provides the configuration shared by all adapters.
package api

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/nodekit/internal/log"
	"github.com/tombee/nodekit/internal/metrics"
	"github.com/tombee/nodekit/internal/node/transport"
)

// ProviderConfig holds the collaborators an adapter is constructed with.
type ProviderConfig struct {
	// Transport executes HTTP requests. Defaults to an HTTPTransport.
	Transport transport.Transport

	// BaseURL overrides the adapter's default API base URL. Used to point
	// adapters at test servers or regional hosts.
	BaseURL string

	// Logger receives request logs. Defaults to a discarding logger.
	Logger *slog.Logger

	// Metrics records request and item counters. May be nil.
	Metrics *metrics.Recorder

	// Tracer creates request spans. May be nil.
	Tracer trace.Tracer

	// MaxPages caps the paginator. Zero means no cap.
	MaxPages int
}

// WithDefaults returns a copy of c with unset collaborators filled in.
func (c *ProviderConfig) WithDefaults() *ProviderConfig {
	var out ProviderConfig
	if c != nil {
		out = *c
	}
	if out.Transport == nil {
		out.Transport = transport.NewHTTPTransport(transport.HTTPConfig{})
	}
	if out.Logger == nil {
		out.Logger = log.Discard()
	}
	return &out
}
