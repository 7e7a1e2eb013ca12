package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// DefaultTimeout applies when HTTPConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// HTTPConfig configures HTTPTransport.
type HTTPConfig struct {
	// Timeout bounds each request. Default: 30s
	Timeout time.Duration

	// UserAgent is sent on every request when set.
	UserAgent string
}

// HTTPTransport sends requests with a resty client. Retries are disabled.
type HTTPTransport struct {
	client      *resty.Client
	rateLimiter RateLimiter
}

// NewHTTPTransport creates an HTTP transport.
func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &HTTPTransport{client: client}
}

// Name returns "http".
func (t *HTTPTransport) Name() string {
	return "http"
}

// SetRateLimiter configures client-side throttling.
func (t *HTTPTransport) SetRateLimiter(limiter RateLimiter) {
	t.rateLimiter = limiter
}

// HTTPClient returns the underlying *http.Client, for libraries that need
// one (e.g. the OAuth2 token exchange).
func (t *HTTPTransport) HTTPClient() *http.Client {
	return t.client.GetClient()
}

// Execute sends the request once.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("invalid request: %s", err.Error()),
			Cause:   err,
		}
	}

	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return nil, &TransportError{
				Type:    ErrorTypeCancelled,
				Message: "rate limit wait cancelled",
				Cause:   err,
			}
		}
	}

	r := t.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if req.Body != nil {
		if _, ok := req.Headers["Content-Type"]; !ok {
			r.SetHeader("Content-Type", "application/json")
		}
		r.SetBody(req.Body)
	}

	httpResp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, classifyHTTPError(ctx, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode(),
		Headers:    httpResp.Header(),
		Body:       httpResp.Body(),
		RequestID:  requestID(httpResp.Header()),
	}

	if !httpResp.IsSuccess() {
		return nil, statusError(resp)
	}
	return resp, nil
}

// validateRequest checks if the request is valid.
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("request is nil")
	}
	switch req.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodHead, http.MethodOptions:
	case "":
		return fmt.Errorf("method is required")
	default:
		return fmt.Errorf("invalid HTTP method: %q", req.Method)
	}

	if req.URL == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return nil
}

func requestID(h http.Header) string {
	for _, key := range []string{"X-Request-ID", "X-Correlation-ID", "Request-Id"} {
		if v := h.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// statusMessages are used when the response body carries no message.
var statusMessages = map[ErrorType]string{
	ErrorTypeAuth:      "Authorization failed - please check your credentials",
	ErrorTypeNotFound:  "The resource you are requesting could not be found",
	ErrorTypeServer:    "The service was not able to process your request",
	ErrorTypeRateLimit: "The service is receiving too many requests from you",
}

// statusError builds the error for a non-2xx response. The message comes
// from the response body when the service reports one.
func statusError(resp *Response) *TransportError {
	errType := classifyStatus(resp.StatusCode)

	message := bodyMessage(resp.Body)
	if message == "" {
		message = statusMessages[errType]
	}
	if message == "" {
		message = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return &TransportError{
		Type:       errType,
		StatusCode: resp.StatusCode,
		Message:    message,
		Body:       resp.Body,
		RequestID:  resp.RequestID,
	}
}

// bodyMessage extracts a human readable message from a JSON error body.
func bodyMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"message", "error.message", "error_description", "error", "errors.0.message"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// classifyHTTPError classifies client errors into TransportError types.
func classifyHTTPError(ctx context.Context, err error) *TransportError {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TransportError{Type: ErrorTypeTimeout, Message: "request timeout", Cause: err}
		}
		return &TransportError{Type: ErrorTypeCancelled, Message: "request cancelled", Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Type: ErrorTypeTimeout, Message: "request timeout", Cause: err}
	}

	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		msg = urlErr.Err.Error()
	}
	return &TransportError{
		Type:    ErrorTypeConnection,
		Message: strings.TrimSpace(msg),
		Cause:   err,
	}
}
