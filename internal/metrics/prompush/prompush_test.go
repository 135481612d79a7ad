package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/urlcluster/internal/metrics"
)

func TestNewBackend_RequiresURL(t *testing.T) {
	_, err := NewBackend("job", "")
	assert.ErrorContains(t, err, "gateway URL is required")
}

func TestBackend_Collects(t *testing.T) {
	b, err := NewBackend("", "http://localhost:9091")
	require.NoError(t, err)
	assert.Equal(t, "urlcluster", b.jobName)

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "write", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 12, metrics.Labels{"kind": "written"})
	b.IncCounter("unknown_metric", 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "write", "status": "success"})

	assert.Equal(t, float64(1), testutil.ToFloat64(b.stepCounter.WithLabelValues("write", "success")))
	assert.Equal(t, float64(12), testutil.ToFloat64(b.rowCounter.WithLabelValues("written")))
}

func TestBackend_FlushPushes(t *testing.T) {
	var (
		mu     sync.Mutex
		path   string
		method string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, method, body = r.URL.Path, r.Method, string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("urlcluster", srv.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "urls"})

	require.NoError(t, b.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/urlcluster", path)
	assert.True(t, strings.Contains(body, metrics.RowsTotal), "pushed body carries row counter")
}
