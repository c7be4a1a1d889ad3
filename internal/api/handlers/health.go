package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/wonny/loanqa/pkg/logger"
)

// CheckFunc probes one dependency. detail is rendered as-is (may be nil).
type CheckFunc func(ctx context.Context) (detail interface{}, err error)

// CheckResult is the outcome of one dependency check
type CheckResult struct {
	Healthy bool        `json:"healthy"`
	Error   string      `json:"error,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

// HealthHandler reports service and dependency health
// ⭐ SSOT: /health 응답은 여기서만 생성
type HealthHandler struct {
	service string
	timeout time.Duration
	checks  map[string]CheckFunc
	logger  *logger.Logger
}

// NewHealthHandler creates a handler; each check gets its own timeout
func NewHealthHandler(service string, timeout time.Duration, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		timeout: timeout,
		checks:  make(map[string]CheckFunc),
		logger:  log,
	}
}

// Register adds a named dependency check (database, redis)
func (h *HealthHandler) Register(name string, check CheckFunc) *HealthHandler {
	h.checks[name] = check
	return h
}

// Check runs every registered check. Any failure answers 503 "degraded".
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ok", http.StatusOK
	results := make(map[string]CheckResult, len(names))
	for _, name := range names {
		res := h.run(r.Context(), h.checks[name])
		if !res.Healthy {
			status, code = "degraded", http.StatusServiceUnavailable
			h.logger.WithFields(map[string]interface{}{
				"check": name,
				"error": res.Error,
			}).Warn("Health check failed")
		}
		results[name] = res
	}

	body := map[string]interface{}{
		"status":  status,
		"service": h.service,
	}
	if len(results) > 0 {
		body["checks"] = results
	}
	respondJSON(w, code, body)
}

func (h *HealthHandler) run(ctx context.Context, check CheckFunc) CheckResult {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	detail, err := check(ctx)
	if err != nil {
		return CheckResult{Healthy: false, Error: err.Error(), Detail: detail}
	}
	return CheckResult{Healthy: true, Detail: detail}
}
