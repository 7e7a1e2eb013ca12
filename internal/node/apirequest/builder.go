// Package apirequest builds and performs the authenticated JSON requests the
// API-key adapters make, and pages through list endpoints.
package apirequest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tombee/nodekit/internal/credential"
	nodelog "github.com/tombee/nodekit/internal/log"
	"github.com/tombee/nodekit/internal/node"
	"github.com/tombee/nodekit/internal/node/api"
	"github.com/tombee/nodekit/internal/node/transport"
)

// DefaultBaseURL is prepended to endpoints when no full URI is given.
const DefaultBaseURL = "https://app01.fetias.com/api/"

// DefaultKeyField is the credential field holding the API key.
const DefaultKeyField = "apiKey"

// Config is fixed at construction and never changes afterwards.
type Config struct {
	// Adapter names the adapter in logs, metrics and spans.
	Adapter string

	// CredentialType is the credential the builder authenticates with.
	CredentialType string

	// AuthPrefix precedes the key in the Authorization header, e.g. "fsk".
	AuthPrefix string

	// KeyField is the credential field holding the key. Default: apiKey
	KeyField string

	// BaseURL is prepended to endpoints. Default: DefaultBaseURL
	BaseURL string

	// Headers are sent with every request.
	Headers map[string]string

	// Timeout bounds each request unless the caller overrides it.
	Timeout time.Duration
}

// Options are per-call overrides. Headers merge key by key over the default
// headers and the credential's Authorization header, with the caller winning
// per key. Other fields replace the default when set.
type Options struct {
	Headers map[string]string
	Timeout time.Duration
}

// Builder assembles and sends requests. It holds no per-call state.
type Builder struct {
	cfg       Config
	transport transport.Transport
	provider  *api.ProviderConfig
	logger    *slog.Logger
}

// New creates a Builder. A BaseURL set on the provider config wins over
// cfg.BaseURL.
func New(cfg Config, provider *api.ProviderConfig) *Builder {
	provider = provider.WithDefaults()

	if cfg.KeyField == "" {
		cfg.KeyField = DefaultKeyField
	}
	if provider.BaseURL != "" {
		cfg.BaseURL = provider.BaseURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	cfg.Headers = headers

	return &Builder{
		cfg:       cfg,
		transport: provider.Transport,
		provider:  provider,
		logger:    nodelog.WithComponent(provider.Logger, "apirequest"),
	}
}

// Config returns a copy of the builder configuration.
func (b *Builder) Config() Config {
	cfg := b.cfg
	cfg.Headers = make(map[string]string, len(b.cfg.Headers))
	for k, v := range b.cfg.Headers {
		cfg.Headers[k] = v
	}
	return cfg
}

// Build assembles the descriptor for one call without performing it. It
// fails with an auth error when the credential or its key is missing.
func (b *Builder) Build(cred *credential.Credential, method, endpoint string, body any, query map[string]any, uri string, opts *Options) (*Descriptor, error) {
	if cred == nil {
		return nil, node.NewAuthError("No credentials got returned!")
	}
	key := cred.String(b.cfg.KeyField)
	if key == "" {
		return nil, node.NewAuthError("The credential %q has no %s", b.cfg.CredentialType, b.cfg.KeyField)
	}

	target := uri
	if target == "" {
		target = b.cfg.BaseURL + strings.TrimPrefix(endpoint, "/")
	}

	headers := make(map[string]string, len(b.cfg.Headers)+1)
	for k, v := range b.cfg.Headers {
		headers[k] = v
	}
	headers["Authorization"] = b.cfg.AuthPrefix + " " + key

	d := &Descriptor{
		Method:  method,
		URL:     target,
		Headers: headers,
		Query:   make(map[string]any, len(query)),
		Timeout: b.cfg.Timeout,
	}
	for k, v := range query {
		d.Query[k] = v
	}
	if !isEmptyBody(body) {
		d.Body = body
	}

	if opts != nil {
		for k, v := range opts.Headers {
			d.Headers[k] = v
		}
		if opts.Timeout > 0 {
			d.Timeout = opts.Timeout
		}
	}
	return d, nil
}

// Request performs one call and returns the decoded JSON response. An
// empty response body yields nil.
func (b *Builder) Request(ctx context.Context, creds credential.Source, method, endpoint string, body any, query map[string]any, uri string, opts *Options) (any, error) {
	raw, err := b.do(ctx, creds, method, endpoint, body, query, uri, opts)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

// RequestRaw performs one call and returns the raw response body.
func (b *Builder) RequestRaw(ctx context.Context, creds credential.Source, method, endpoint string, body any, query map[string]any, uri string, opts *Options) ([]byte, error) {
	return b.do(ctx, creds, method, endpoint, body, query, uri, opts)
}

func (b *Builder) do(ctx context.Context, creds credential.Source, method, endpoint string, body any, query map[string]any, uri string, opts *Options) ([]byte, error) {
	cred, err := b.credential(ctx, creds)
	if err != nil {
		return nil, err
	}

	d, err := b.Build(cred, method, endpoint, body, query, uri, opts)
	if err != nil {
		return nil, err
	}
	return Send(ctx, b.transport, d, b.observer())
}

func (b *Builder) credential(ctx context.Context, creds credential.Source) (*credential.Credential, error) {
	if creds == nil {
		return nil, node.NewAuthError("No credentials got returned!")
	}
	cred, err := creds.Credential(ctx, b.cfg.CredentialType)
	if err != nil {
		if errors.Is(err, credential.ErrNotConfigured) {
			return nil, &node.Error{Type: node.ErrorTypeAuth, Message: "No credentials got returned!", Cause: err}
		}
		return nil, &node.Error{Type: node.ErrorTypeAuth, Message: err.Error(), Cause: err}
	}
	return cred, nil
}

func (b *Builder) observer() Observer {
	return Observer{
		Adapter: b.cfg.Adapter,
		Logger:  b.logger,
		Metrics: b.provider.Metrics,
		Tracer:  b.provider.Tracer,
	}
}

// decode parses a JSON response body. Non-JSON bodies are returned as a
// string.
func decode(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw), nil
	}
	return v, nil
}

// Decode is decode for callers sending descriptors through Send.
func Decode(raw []byte) (any, error) {
	return decode(raw)
}

// wrapError converts a transport failure into an API error carrying the
// original message.
func wrapError(err error) error {
	var terr *transport.TransportError
	if errors.As(err, &terr) {
		nerr := &node.Error{
			Type:       node.ErrorTypeAPI,
			Message:    terr.Message,
			StatusCode: terr.StatusCode,
			RequestID:  terr.RequestID,
			Cause:      err,
		}
		if len(terr.Body) > 0 {
			nerr.Description = truncate(string(terr.Body), 500)
		}
		return nerr
	}
	return node.NewAPIError(err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
