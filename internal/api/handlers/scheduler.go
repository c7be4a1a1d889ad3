package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/wonny/loanqa/internal/scheduler"
	"github.com/wonny/loanqa/pkg/logger"
)

const defaultHistoryLimit = 20

// JobScheduler is satisfied by scheduler.Scheduler
type JobScheduler interface {
	GetAllJobs() []string
	GetJobStats() map[string]scheduler.JobStats
	GetJobHistory(jobName string, limit int) ([]scheduler.JobResult, error)
}

// SchedulerHandler exposes the in-process scheduler (api --with-scheduler)
type SchedulerHandler struct {
	sched  JobScheduler
	logger *logger.Logger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(sched JobScheduler, log *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{sched: sched, logger: log}
}

// ListJobs returns stats and next fire time per job, by name
// GET /api/scheduler/jobs
func (h *SchedulerHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	stats := h.sched.GetJobStats()

	jobs := make([]scheduler.JobStats, 0, len(stats))
	for _, name := range h.sched.GetAllJobs() {
		if st, ok := stats[name]; ok {
			jobs = append(jobs, st)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetHistory returns the latest executions of one job, newest first
// GET /api/scheduler/jobs/{name}/history?limit=20
func (h *SchedulerHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	results, err := h.sched.GetJobHistory(name, limit)
	if err != nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":     name,
		"results": results,
		"count":   len(results),
	})
}
