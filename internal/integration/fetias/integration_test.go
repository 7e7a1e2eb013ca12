package fetias

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/nodekit/internal/credential"
	"github.com/tombee/nodekit/internal/node"
	"github.com/tombee/nodekit/internal/node/api"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Auth   string
	Body   map[string]any
}

// fakeFetias records requests and answers from a handler map keyed by
// "METHOD /path".
type fakeFetias struct {
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeFetias(t *testing.T, handlers map[string]http.HandlerFunc) (*fakeFetias, *httptest.Server) {
	f := &fakeFetias{handlers: handlers}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Auth:   r.Header.Get("Authorization"),
		}
		data, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(data))
		if len(data) > 0 {
			if err := json.Unmarshal(data, &rec.Body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()

		h, ok := f.handlers[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(server.Close)
	return f, server
}

func newIntegration(t *testing.T, serverURL string) node.Adapter {
	adapter, err := NewFetiasIntegration(&api.ProviderConfig{BaseURL: serverURL + "/api/"})
	require.NoError(t, err)
	return adapter
}

var testCreds = credential.Static{CredentialType: {"apiKey": "secret-key"}}

func echoRecords(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	records := body["records"].([]any)
	out := make([]any, 0, len(records))
	for i, rec := range records {
		fields := rec.(map[string]any)["fields"]
		out = append(out, map[string]any{"id": "rec" + strconv.Itoa(i), "fields": fields})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"records": out})
}

func TestCreate_SendsItemWithoutID(t *testing.T) {
	fake, server := newFakeFetias(t, map[string]http.HandlerFunc{
		"POST /api/Activity/Form": echoRecords,
	})

	out, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
		Operation:   "create",
		Items:       []node.Item{node.NewItem(map[string]any{"name": "Alice"})},
		Params:      node.StaticParams{"workspace": "ws1", "module": "contacts"},
		Credentials: testCreds,
	})
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "fsk secret-key", req.Auth)
	assert.Equal(t, map[string]any{
		"records": []any{
			map[string]any{"fields": map[string]any{"name": "Alice"}},
		},
	}, req.Body)

	require.Len(t, out, 1)
	assert.Equal(t, map[string]any{"name": "Alice"}, out[0].JSON["fields"])
}

func TestCreate_StripsIDPerItem(t *testing.T) {
	fake, server := newFakeFetias(t, map[string]http.HandlerFunc{
		"POST /api/Activity/Form": echoRecords,
	})

	items := []node.Item{
		node.NewItem(map[string]any{"id": 7, "name": "Alice", "tags": []any{"a"}}),
		node.NewItem(map[string]any{"id": "x", "name": "Bob"}),
	}
	out, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
		Operation:   "create",
		Items:       items,
		Params:      node.StaticParams{"workspace": "ws1", "module": "contacts"},
		Credentials: testCreds,
	})
	require.NoError(t, err)
	require.Len(t, fake.requests, 2)
	require.Len(t, out, 2)

	for i, want := range []map[string]any{
		{"name": "Alice", "tags": []any{"a"}},
		{"name": "Bob"},
	} {
		records := fake.requests[i].Body["records"].([]any)
		require.Len(t, records, 1)
		assert.Equal(t, want, records[0].(map[string]any)["fields"])
	}

	assert.Contains(t, items[0].JSON, "id", "input items must not be modified")
}

func TestCreate_RequiresWorkspaceAndModule(t *testing.T) {
	fake, server := newFakeFetias(t, nil)

	_, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
		Operation:   "create",
		Items:       []node.Item{node.NewItem(map[string]any{"name": "Alice"})},
		Params:      node.StaticParams{"workspace": "ws1"},
		Credentials: testCreds,
	})
	assert.True(t, node.IsType(err, node.ErrorTypeOperation))
	assert.Empty(t, fake.requests)
}

func TestCreate_NotFoundPolicy(t *testing.T) {
	notFound := map[string]http.HandlerFunc{
		"POST /api/Activity/Form": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Form not found"}`))
		},
	}
	items := []node.Item{
		node.NewItem(map[string]any{"name": "Alice"}),
		node.NewItem(map[string]any{"name": "Bob"}),
	}
	params := node.StaticParams{"workspace": "ws1", "module": "contacts"}

	t.Run("abort", func(t *testing.T) {
		fake, server := newFakeFetias(t, notFound)
		out, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
			Operation:   "create",
			Items:       items,
			Params:      params,
			Credentials: testCreds,
			Policy:      node.Policy{ContinueOnFail: false},
		})
		require.Error(t, err)
		assert.Nil(t, out)
		assert.Equal(t, "Form not found", err.Error())

		var nerr *node.Error
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, node.ErrorTypeAPI, nerr.Type)
		assert.Equal(t, http.StatusNotFound, nerr.StatusCode)
		assert.Len(t, fake.requests, 1, "run stops at the first failure")
	})

	t.Run("continue", func(t *testing.T) {
		fake, server := newFakeFetias(t, notFound)
		out, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
			Operation:   "create",
			Items:       items,
			Params:      params,
			Credentials: testCreds,
			Policy:      node.Policy{ContinueOnFail: true},
		})
		require.NoError(t, err)
		assert.Equal(t, []node.Item{
			{JSON: map[string]any{"error": "Form not found"}},
			{JSON: map[string]any{"error": "Form not found"}},
		}, out)
		assert.Len(t, fake.requests, 2)
	})
}

func TestCreate_ResponseWithoutRecords(t *testing.T) {
	queued := map[string]http.HandlerFunc{
		"POST /api/Activity/Form": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"queued"}`))
		},
	}
	items := []node.Item{
		node.NewItem(map[string]any{"name": "Alice"}),
		node.NewItem(map[string]any{"name": "Bob"}),
	}
	params := node.StaticParams{"workspace": "ws1", "module": "contacts"}

	t.Run("abort", func(t *testing.T) {
		_, server := newFakeFetias(t, queued)
		_, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
			Operation:   "create",
			Items:       items,
			Params:      params,
			Credentials: testCreds,
		})
		require.Error(t, err)
		assert.True(t, node.IsType(err, node.ErrorTypeAPI))
	})

	t.Run("continue", func(t *testing.T) {
		_, server := newFakeFetias(t, queued)
		out, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
			Operation:   "create",
			Items:       items,
			Params:      params,
			Credentials: testCreds,
			Policy:      node.Policy{ContinueOnFail: true},
		})
		require.NoError(t, err)
		assert.Equal(t, []node.Item{
			{JSON: map[string]any{"error": "The response contains no records"}},
			{JSON: map[string]any{"error": "The response contains no records"}},
		}, out)
	})
}

func TestRead_RunsOnce(t *testing.T) {
	fake, server := newFakeFetias(t, map[string]http.HandlerFunc{
		"GET /api/profile": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"username":"alice"}`))
		},
	})

	out, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
		Operation:   "read",
		Items:       []node.Item{node.NewItem(nil), node.NewItem(nil), node.NewItem(nil)},
		Credentials: testCreds,
	})
	require.NoError(t, err)
	assert.Len(t, fake.requests, 1)
	assert.Equal(t, []node.Item{{JSON: map[string]any{"username": "alice"}}}, out)
	assert.Nil(t, fake.requests[0].Body)
}

func TestRead_MissingCredential(t *testing.T) {
	fake, server := newFakeFetias(t, nil)

	_, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
		Operation:   "read",
		Items:       []node.Item{node.NewItem(nil)},
		Credentials: credential.Static{CredentialType: {}},
		Policy:      node.Policy{ContinueOnFail: false},
	})
	assert.True(t, node.IsType(err, node.ErrorTypeAuth))
	assert.Empty(t, fake.requests)
}

func TestGetAll(t *testing.T) {
	pages := map[string]http.HandlerFunc{
		"GET /api/Activity/Form": func(w http.ResponseWriter, r *http.Request) {
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
			items := make([]any, 0)
			for i := 0; i < 2 && i < size; i++ {
				items = append(items, map[string]any{"n": page*10 + i})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "page_count": 2})
		},
	}

	t.Run("return all", func(t *testing.T) {
		fake, server := newFakeFetias(t, pages)
		out, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
			Operation:   "getAll",
			Params:      node.StaticParams{"returnAll": true},
			Credentials: testCreds,
		})
		require.NoError(t, err)
		assert.Len(t, fake.requests, 2)
		require.Len(t, out, 4)
		assert.Equal(t, 10.0, out[0].JSON["n"])
		assert.Equal(t, 21.0, out[3].JSON["n"])
		assert.Equal(t, []string{"200"}, fake.requests[0].Query["page_size"])
	})

	t.Run("limit", func(t *testing.T) {
		fake, server := newFakeFetias(t, pages)
		out, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{
			Operation:   "getAll",
			Params:      node.StaticParams{"limit": 1},
			Credentials: testCreds,
		})
		require.NoError(t, err)
		assert.Len(t, fake.requests, 1)
		assert.Equal(t, []string{"1"}, fake.requests[0].Query["page_size"])
		assert.Len(t, out, 1)
	})
}

func TestUnknownOperation(t *testing.T) {
	_, server := newFakeFetias(t, nil)
	_, err := newIntegration(t, server.URL).Execute(context.Background(), &node.Execution{Operation: "delete"})
	assert.True(t, node.IsType(err, node.ErrorTypeOperation))
}
