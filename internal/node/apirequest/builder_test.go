package apirequest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/nodekit/internal/credential"
	"github.com/tombee/nodekit/internal/metrics"
	"github.com/tombee/nodekit/internal/node"
	"github.com/tombee/nodekit/internal/node/api"
	"github.com/tombee/nodekit/internal/node/transport"
)

// mockTransport records requests and replays canned responses.
type mockTransport struct {
	requests  []*transport.Request
	responses []string
	err       error
}

func (m *mockTransport) Execute(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	body := `{}`
	if i := len(m.requests) - 1; i < len(m.responses) {
		body = m.responses[i]
	}
	return &transport.Response{StatusCode: 200, Body: []byte(body)}, nil
}

func (m *mockTransport) Name() string                         { return "mock" }
func (m *mockTransport) SetRateLimiter(transport.RateLimiter) {}

func fetiasConfig() Config {
	return Config{Adapter: "fetias", CredentialType: "fetiasApi", AuthPrefix: "fsk"}
}

func newBuilder(tr transport.Transport, maxPages int) *Builder {
	return New(fetiasConfig(), &api.ProviderConfig{Transport: tr, MaxPages: maxPages})
}

func creds(key string) credential.Static {
	return credential.Static{"fetiasApi": {"apiKey": key}}
}

func TestRequest_MissingCredentialFailsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name  string
		creds credential.Source
	}{
		{name: "no credential source", creds: nil},
		{name: "credential type not configured", creds: credential.Static{}},
		{name: "key field missing", creds: credential.Static{"fetiasApi": {}}},
		{name: "key field empty", creds: creds("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &mockTransport{}
			_, err := newBuilder(tr, 0).Request(context.Background(), tt.creds, http.MethodGet, "profile", nil, nil, "", nil)

			require.Error(t, err)
			assert.True(t, node.IsType(err, node.ErrorTypeAuth), "want auth error, got %v", err)
			assert.Empty(t, tr.requests, "no request may be sent")
		})
	}
}

func TestBuild_EmptyBodyIsDropped(t *testing.T) {
	cred := &credential.Credential{Type: "fetiasApi", Data: map[string]any{"apiKey": "k"}}
	b := newBuilder(&mockTransport{}, 0)

	for _, body := range []any{nil, map[string]any{}, []any{}, []map[string]any{}} {
		d, err := b.Build(cred, http.MethodPost, "Activity/Form", body, nil, "", nil)
		require.NoError(t, err)
		assert.Nil(t, d.Body, "body %#v should be dropped", body)

		payload, err := d.EncodeBody()
		require.NoError(t, err)
		assert.Nil(t, payload)
	}

	d, err := b.Build(cred, http.MethodPost, "Activity/Form", map[string]any{"a": 1}, nil, "", nil)
	require.NoError(t, err)
	assert.NotNil(t, d.Body)
}

func TestBuild_AuthorizationHeader(t *testing.T) {
	keys := []string{"k", "abc123", "with space", "ünïcode-κλειδί", "fsk"}
	for _, prefix := range []string{"fsk", "Bearer"} {
		cfg := fetiasConfig()
		cfg.AuthPrefix = prefix
		b := New(cfg, &api.ProviderConfig{Transport: &mockTransport{}})

		for _, key := range keys {
			cred := &credential.Credential{Type: "fetiasApi", Data: map[string]any{"apiKey": key}}
			d, err := b.Build(cred, http.MethodGet, "profile", nil, nil, "", nil)
			require.NoError(t, err)
			assert.Equal(t, prefix+" "+key, d.Headers["Authorization"])
		}
	}
}

func TestBuild_URLAndOptions(t *testing.T) {
	cred := &credential.Credential{Type: "fetiasApi", Data: map[string]any{"apiKey": "k"}}
	cfg := fetiasConfig()
	cfg.Headers = map[string]string{"Accept": "application/json", "X-Client": "nodekit"}
	cfg.Timeout = 5 * time.Second
	b := New(cfg, nil)

	d, err := b.Build(cred, http.MethodGet, "profile", nil, nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://app01.fetias.com/api/profile", d.URL)
	assert.Equal(t, 5*time.Second, d.Timeout)

	d, err = b.Build(cred, http.MethodGet, "ignored", nil, nil, "https://other.example.test/x", &Options{
		Headers: map[string]string{"Accept": "text/csv", "Authorization": "custom"},
		Timeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.test/x", d.URL)
	assert.Equal(t, "text/csv", d.Headers["Accept"], "caller wins")
	assert.Equal(t, "custom", d.Headers["Authorization"], "caller wins")
	assert.Equal(t, "nodekit", d.Headers["X-Client"], "defaults kept")
	assert.Equal(t, time.Second, d.Timeout)

	assert.Equal(t, "application/json", b.Config().Headers["Accept"], "builder config is not mutated")

	d, err = b.Build(cred, http.MethodGet, "profile", nil, nil, "", &Options{
		Headers: map[string]string{"X-Trace": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Accept":        "application/json",
		"X-Client":      "nodekit",
		"X-Trace":       "1",
		"Authorization": "fsk k",
	}, d.Headers, "headers merge per key")
}

func TestBuild_ProviderBaseURLOverride(t *testing.T) {
	cred := &credential.Credential{Type: "fetiasApi", Data: map[string]any{"apiKey": "k"}}
	b := New(fetiasConfig(), &api.ProviderConfig{BaseURL: "http://127.0.0.1:8080/api/"})

	d, err := b.Build(cred, http.MethodGet, "/profile", nil, nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/api/profile", d.URL)
}

func TestDescriptor_FullURL(t *testing.T) {
	d := &Descriptor{
		URL:   "https://app01.fetias.com/api/Activity/Form?x=1",
		Query: map[string]any{"page": 2, "page_size": 200, "ids": []any{"a", "b"}, "skip": nil},
	}
	full, err := d.FullURL()
	require.NoError(t, err)

	u, err := url.Parse(full)
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"x":         {"1"},
		"page":      {"2"},
		"page_size": {"200"},
		"ids":       {"a", "b"},
	}, u.Query())
}

func TestRequest_DecodesResponse(t *testing.T) {
	tr := &mockTransport{responses: []string{`{"name":"fetias-user"}`, ``, `not json`}}
	b := newBuilder(tr, 0)

	resp, err := b.Request(context.Background(), creds("k"), http.MethodGet, "profile", nil, map[string]any{"a": "b"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "fetias-user"}, resp)
	assert.Equal(t, "https://app01.fetias.com/api/profile?a=b", tr.requests[0].URL)
	assert.Equal(t, "fsk k", tr.requests[0].Headers["Authorization"])
	assert.Nil(t, tr.requests[0].Body)

	resp, err = b.Request(context.Background(), creds("k"), http.MethodDelete, "x", nil, nil, "", nil)
	require.NoError(t, err)
	assert.Nil(t, resp)

	resp, err = b.Request(context.Background(), creds("k"), http.MethodGet, "x", nil, nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "not json", resp)
}

func TestRequest_WrapsTransportErrors(t *testing.T) {
	tr := &mockTransport{err: &transport.TransportError{
		Type:       transport.ErrorTypeNotFound,
		StatusCode: 404,
		Message:    "The resource you are requesting could not be found",
		Body:       []byte(`{"detail":"no such form"}`),
		RequestID:  "req-1",
	}}

	_, err := newBuilder(tr, 0).Request(context.Background(), creds("k"), http.MethodGet, "Activity/Form", nil, nil, "", nil)
	var nerr *node.Error
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, node.ErrorTypeAPI, nerr.Type)
	assert.Equal(t, "The resource you are requesting could not be found", nerr.Error())
	assert.Equal(t, 404, nerr.StatusCode)
	assert.Equal(t, "req-1", nerr.RequestID)
	assert.Contains(t, nerr.Description, "no such form")
	assert.Len(t, tr.requests, 1, "no retries")

	tr.err = fmt.Errorf("dial tcp: connection refused")
	_, err = newBuilder(tr, 0).Request(context.Background(), creds("k"), http.MethodGet, "profile", nil, nil, "", nil)
	assert.True(t, node.IsType(err, node.ErrorTypeAPI))
	assert.Equal(t, "dial tcp: connection refused", err.Error())
}

func page(items []any, pageCount any) string {
	body := map[string]any{"items": items}
	if pageCount != nil {
		body["page_count"] = pageCount
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func TestRequestAllItems_FollowsPageCount(t *testing.T) {
	tr := &mockTransport{responses: []string{
		page([]any{map[string]any{"id": 1.0}, map[string]any{"id": 2.0}}, 3),
		page([]any{map[string]any{"id": 3.0}}, 3),
		page([]any{map[string]any{"id": 4.0}}, 3),
		page([]any{map[string]any{"id": 99.0}}, 3),
	}}
	rec := metrics.NewRecorder()
	b := New(fetiasConfig(), &api.ProviderConfig{Transport: tr, Metrics: rec})

	out, err := b.RequestAllItems(context.Background(), creds("k"), http.MethodGet, "Activity/Form", nil, map[string]any{"filter": "x"})
	require.NoError(t, err)

	require.Len(t, tr.requests, 3)
	assert.Equal(t, []any{
		map[string]any{"id": 1.0},
		map[string]any{"id": 2.0},
		map[string]any{"id": 3.0},
		map[string]any{"id": 4.0},
	}, out["items"])

	for i, req := range tr.requests {
		u, err := url.Parse(req.URL)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(i+1), u.Query().Get("page"))
		assert.Equal(t, "200", u.Query().Get("page_size"))
		assert.Equal(t, "x", u.Query().Get("filter"))
	}
}

func TestRequestAllItems_NoPageCountIsSingleCall(t *testing.T) {
	tr := &mockTransport{responses: []string{
		page([]any{"a", "b"}, nil),
		page([]any{"c"}, nil),
	}}

	out, err := newBuilder(tr, 0).RequestAllItems(context.Background(), creds("k"), http.MethodGet, "Activity/Form", nil, nil)
	require.NoError(t, err)
	assert.Len(t, tr.requests, 1)
	assert.Equal(t, []any{"a", "b"}, out["items"])
}

func TestRequestAllItems_EmptyResult(t *testing.T) {
	tr := &mockTransport{responses: []string{`{"page_count":0}`}}

	out, err := newBuilder(tr, 0).RequestAllItems(context.Background(), creds("k"), http.MethodGet, "Activity/Form", nil, nil)
	require.NoError(t, err)
	assert.Len(t, tr.requests, 1)
	assert.Equal(t, []any{}, out["items"])
}

func TestRequestAllItems_MaxPagesCap(t *testing.T) {
	tr := &mockTransport{responses: []string{
		page([]any{1}, 10), page([]any{2}, 10), page([]any{3}, 10),
	}}

	out, err := newBuilder(tr, 2).RequestAllItems(context.Background(), creds("k"), http.MethodGet, "Activity/Form", nil, nil)
	require.NoError(t, err)
	assert.Len(t, tr.requests, 2)
	assert.Equal(t, []any{1.0, 2.0}, out["items"])
}

func TestRequestAllItems_ErrorAborts(t *testing.T) {
	tr := &mockTransport{err: &transport.TransportError{Type: transport.ErrorTypeServer, StatusCode: 500, Message: "boom"}}

	_, err := newBuilder(tr, 0).RequestAllItems(context.Background(), creds("k"), http.MethodGet, "Activity/Form", nil, nil)
	assert.True(t, node.IsType(err, node.ErrorTypeAPI))
	assert.Len(t, tr.requests, 1)
}
