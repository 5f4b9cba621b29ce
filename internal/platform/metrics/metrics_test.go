package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRepositoryOp(t *testing.T) {
	m := New()

	m.ObserveRepositoryOp("memory", "get", "ok", time.Millisecond)
	m.ObserveRepositoryOp("memory", "get", "ok", time.Millisecond)
	m.ObserveRepositoryOp("memory", "get", "not_found", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.repoOps.WithLabelValues("memory", "get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.repoOps.WithLabelValues("memory", "get", "not_found")))
}

func TestHandler_ExposesHTTPMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "GET /books/{id}", http.StatusOK, 5*time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `booksvc_http_requests_total{method="GET",route="GET /books/{id}",status="200"} 1`)
}
