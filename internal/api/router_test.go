package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loanqa/internal/api/handlers"
	"github.com/wonny/loanqa/internal/contracts"
	"github.com/wonny/loanqa/internal/quality"
	"github.com/wonny/loanqa/internal/scheduler"
	"github.com/wonny/loanqa/pkg/logger"
)

type emptyStore struct{}

func (emptyStore) GetLatest(ctx context.Context) (*contracts.QualitySnapshot, error) {
	return nil, quality.ErrNotFound
}

func (emptyStore) GetByRunID(ctx context.Context, runID uuid.UUID) (*contracts.QualitySnapshot, error) {
	return nil, quality.ErrNotFound
}

func (emptyStore) List(ctx context.Context, limit int) ([]*contracts.QualitySnapshot, error) {
	return nil, nil
}

func testHandlers() Handlers {
	return Handlers{
		Health:  handlers.NewHealthHandler("loanqa-api", time.Second, logger.Nop()),
		Quality: handlers.NewQualityHandler(emptyStore{}, nil, logger.Nop()),
	}
}

func newTestRouter(gatherer prometheus.Gatherer) *mux.Router {
	return NewRouter(testHandlers(), gatherer, logger.Nop())
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRouter_Routes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := quality.NewMetrics(reg)
	metrics.ObserveFailure()
	router := newTestRouter(reg)

	tests := []struct {
		target   string
		wantCode int
	}{
		{"/health", http.StatusOK},
		{"/api/quality/latest", http.StatusNotFound},
		{"/api/quality/runs", http.StatusOK},
		{"/api/quality/runs/" + uuid.NewString(), http.StatusNotFound},
		{"/api/quality/runs/bad", http.StatusBadRequest},
		{"/metrics", http.StatusOK},
		{"/api/unknown", http.StatusNotFound},
		{"/api/scheduler/jobs", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, get(router, tt.target).Code)
		})
	}
}

func TestRouter_Health(t *testing.T) {
	rec := get(newTestRouter(nil), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "loanqa-api", body["service"])
}

func TestRouter_HealthDegraded(t *testing.T) {
	h := testHandlers()
	h.Health.Register("database", func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("connection refused")
	})

	rec := get(NewRouter(h, nil, logger.Nop()), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestRoutes(t *testing.T) {
	assert.Equal(t, []string{
		"GET /health",
		"GET /api/quality/latest",
		"GET /api/quality/runs",
		"GET /api/quality/runs/{id}",
	}, Routes(newTestRouter(nil)))

	h := testHandlers()
	h.Scheduler = handlers.NewSchedulerHandler(scheduler.New(logger.Nop()), logger.Nop())
	routes := Routes(NewRouter(h, prometheus.NewRegistry(), logger.Nop()))
	assert.Contains(t, routes, "GET /metrics")
	assert.Contains(t, routes, "GET /api/scheduler/jobs")
	assert.Contains(t, routes, "GET /api/scheduler/jobs/{name}/history")
}

func TestRouter_SchedulerEndpoints(t *testing.T) {
	sched := scheduler.New(logger.Nop())
	h := testHandlers()
	h.Scheduler = handlers.NewSchedulerHandler(sched, logger.Nop())
	router := NewRouter(h, nil, logger.Nop())

	rec := get(router, "/api/scheduler/jobs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jobs":[],"count":0}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(router, "/api/scheduler/jobs/data_quality/history").Code)
}

func TestRouter_MetricsDisabled(t *testing.T) {
	rec := get(newTestRouter(nil), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MetricsExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	quality.NewMetrics(reg).ObserveFailure()

	rec := get(newTestRouter(reg), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "loanqa_")
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := recoveryMiddleware(logger.Nop())(panicking)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
