package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abduss/modelvault/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(checks ...Check) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Dependencies{
		Config: config.Config{Metrics: config.MetricsConfig{PrometheusPath: "/metrics"}},
		Checks: checks,
	})
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadyReportsFirstFailingComponent(t *testing.T) {
	ok := Check{Component: "postgres", Probe: func(context.Context) error { return nil }}
	down := Check{Component: "redis", Probe: func(context.Context) error { return errors.New("connection refused") }}

	rec := get(newTestRouter(ok, down), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"component":"redis"`)

	rec = get(newTestRouter(ok), "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLiveAndMetricsEndpoints(t *testing.T) {
	router := newTestRouter()

	assert.Equal(t, http.StatusOK, get(router, "/health/live").Code)

	rec := get(router, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "modelvault_http_requests_total")
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	router := newTestRouter()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))
}
