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

package options

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/nodekit/internal/commands/shared"
)

func haloServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/token":
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
		case "/api/client":
			_, _ = w.Write([]byte(`[{"id":2,"name":"Zeta"},{"id":1,"name":"Acme"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func configure(t *testing.T, serverURL string) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "log:\n  level: error\ncredentials:\n  haloPSAApi:\n" +
		"    authUrl: " + serverURL + "/auth\n" +
		"    resourceApiUrl: " + serverURL + "/api\n" +
		"    client_id: id\n" +
		"    client_secret: secret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	shared.SetConfigPathForTest(path)
	t.Cleanup(func() { shared.SetConfigPathForTest("") })
}

func TestOptions_Clients(t *testing.T) {
	configure(t, haloServer(t).URL)

	cmd := NewCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"halopsa", "clients"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "1\tAcme\n2\tZeta\n", buf.String())
}

func TestOptions_NoLoaders(t *testing.T) {
	configure(t, haloServer(t).URL)

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"fetias", "sites"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCode(err))
}
