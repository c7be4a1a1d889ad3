package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/wonny/loanqa/internal/contracts"
	"github.com/wonny/loanqa/internal/quality"
	"github.com/wonny/loanqa/pkg/logger"
	"github.com/wonny/loanqa/pkg/redis"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SnapshotStore is the read side of quality.Repository
type SnapshotStore interface {
	GetLatest(ctx context.Context) (*contracts.QualitySnapshot, error)
	GetByRunID(ctx context.Context, runID uuid.UUID) (*contracts.QualitySnapshot, error)
	List(ctx context.Context, limit int) ([]*contracts.QualitySnapshot, error)
}

// SnapshotCache is satisfied by redis.Cache
type SnapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// QualityHandler serves persisted pipeline runs
// ⭐ SSOT: 품질 API 핸들러는 이 구조체에서만
type QualityHandler struct {
	store  SnapshotStore
	cache  SnapshotCache // optional
	logger *logger.Logger
}

// NewQualityHandler creates a new quality handler. cache may be nil.
func NewQualityHandler(store SnapshotStore, cache SnapshotCache, log *logger.Logger) *QualityHandler {
	return &QualityHandler{
		store:  store,
		cache:  cache,
		logger: log,
	}
}

// RunSummary is one entry of the run list
type RunSummary struct {
	RunID        uuid.UUID                  `json:"run_id"`
	StartedAt    time.Time                  `json:"started_at"`
	DurationMS   int64                      `json:"duration_ms"`
	Source       string                     `json:"source"`
	Dimensions   []contracts.DimensionScore `json:"dimensions"`
	RemovedLoans int                        `json:"removed_loans"`
}

// GetLatest returns the most recent run
// GET /api/quality/latest
func (h *QualityHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, redis.LatestSnapshotKey(), redis.TTLMedium, h.store.GetLatest)
}

// GetRun returns one run by id
// GET /api/quality/runs/{id}
func (h *QualityHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	// runs are immutable once stored
	h.serveSnapshot(w, r, redis.RunSnapshotKey(runID.String()), redis.TTLDaily, func(ctx context.Context) (*contracts.QualitySnapshot, error) {
		return h.store.GetByRunID(ctx, runID)
	})
}

// ListRuns returns run summaries, newest first
// GET /api/quality/runs?limit=20
func (h *QualityHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	snapshots, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list quality runs")
		respondError(w, http.StatusInternalServerError, "Failed to list quality runs")
		return
	}

	runs := make([]RunSummary, 0, len(snapshots))
	for _, s := range snapshots {
		runs = append(runs, RunSummary{
			RunID:        s.RunID,
			StartedAt:    s.StartedAt,
			DurationMS:   s.DurationMS,
			Source:       s.Source,
			Dimensions:   s.Dimensions,
			RemovedLoans: s.RemovedCount(),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

func (h *QualityHandler) serveSnapshot(
	w http.ResponseWriter,
	r *http.Request,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*contracts.QualitySnapshot, error),
) {
	ctx := r.Context()

	if h.cache != nil {
		var cached contracts.QualitySnapshot
		found, err := h.cache.Get(ctx, key, &cached)
		if err != nil {
			h.logger.WithError(err).Warn("Quality cache read failed")
		}
		if found {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	snapshot, err := load(ctx)
	if errors.Is(err, quality.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Quality run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get quality snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve quality snapshot")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, snapshot, ttl); err != nil {
			h.logger.WithError(err).Warn("Quality cache write failed")
		}
	}

	respondJSON(w, http.StatusOK, snapshot)
}
