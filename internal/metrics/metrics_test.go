package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.RecordRequest("fetias", "GET", 200, 120*time.Millisecond)
	r.RecordRequest("fetias", "GET", 200, 80*time.Millisecond)
	r.RecordRequest("fetias", "POST", 404, 10*time.Millisecond)
	r.RecordPage("fetias")
	r.RecordItem("fetias", "create", OutcomeError)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.requests.WithLabelValues("fetias", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("fetias", "POST", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pages.WithLabelValues("fetias")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.items.WithLabelValues("fetias", "create", OutcomeError)))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.RecordItem("halopsa", "get", OutcomeSuccess)

	path := filepath.Join(t.TempDir(), "nodekit.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `nodekit_items_processed_total{adapter="halopsa",operation="get",outcome="success"} 1`)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.RecordRequest("a", "GET", 200, time.Second)
	r.RecordPage("a")
	r.RecordItem("a", "op", OutcomeSuccess)
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, r.Registry())
}
