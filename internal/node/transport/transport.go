// Package transport executes HTTP requests for adapters.
//
// Transports do not retry. A failed request surfaces as a *TransportError and
// the caller decides what happens next.
package transport

import (
	"context"
)

// Transport executes requests.
type Transport interface {
	// Execute sends a request and returns a response.
	// Returns *TransportError on failure, including non-2xx responses.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Name returns the transport identifier (e.g. "http").
	Name() string

	// SetRateLimiter configures client-side throttling.
	SetRateLimiter(limiter RateLimiter)
}

// Request is a fully assembled request. Query parameters are already part of
// URL.
type Request struct {
	// Method is the HTTP method. Required.
	Method string

	// URL is the full request URL. Required.
	URL string

	// Headers are request headers. May be nil.
	Headers map[string]string

	// Body is the encoded request body. Nil means no body is sent.
	Body []byte
}

// Response is a successful response.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte

	// RequestID is the service request id, when the service returns one.
	RequestID string
}

// RateLimiter throttles requests. Wait blocks until a request may proceed.
type RateLimiter interface {
	Wait(ctx context.Context) error
}
