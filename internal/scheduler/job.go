package scheduler

import (
	"context"
	"time"
)

// Job is a unit the scheduler runs on a cron schedule
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes the job once and reports what it produced
	Run(ctx context.Context) (Outcome, error)

	// Schedule is a six-field cron expression (with seconds), e.g.
	// "0 0 6 * * *" for 06:00 daily, or a descriptor such as "@daily"
	Schedule() string
}

// Outcome is what a successful quality run published
type Outcome struct {
	RunID        string `json:"run_id,omitempty"`
	RemovedLoans int    `json:"removed_loans"`
	DefinedDims  int    `json:"defined_dimensions"` // dimensions with a defined score
}

// JobResult is one scheduled or manual execution, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Outcome
}

// maxHistory bounds the results kept per job
const maxHistory = 100

// JobHistory keeps the most recent results of one job, oldest first
type JobHistory struct {
	results []JobResult
}

// Add appends a result, dropping the oldest beyond maxHistory
func (h *JobHistory) Add(result JobResult) {
	h.results = append(h.results, result)
	if len(h.results) > maxHistory {
		h.results = h.results[len(h.results)-maxHistory:]
	}
}

// Len returns the number of kept results
func (h *JobHistory) Len() int {
	return len(h.results)
}

// Latest returns up to n results, newest first. n <= 0 returns all.
func (h *JobHistory) Latest(n int) []JobResult {
	if n <= 0 || n > len(h.results) {
		n = len(h.results)
	}
	out := make([]JobResult, 0, n)
	for i := len(h.results) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.results[i])
	}
	return out
}

// JobStats summarizes a job's history
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"` // 0 when never run
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	LastRunID    string     `json:"last_run_id,omitempty"` // quality run of the last success
}

// stats fills the history-derived fields of JobStats
func (h *JobHistory) stats() JobStats {
	var st JobStats
	st.TotalRuns = len(h.results)

	for i := len(h.results) - 1; i >= 0; i-- {
		r := h.results[i]
		start := r.StartTime
		if st.LastRun == nil {
			st.LastRun = &start
		}
		if r.Success {
			st.SuccessCount++
			if st.LastSuccess == nil {
				st.LastSuccess = &start
				st.LastRunID = r.RunID
			}
		} else {
			st.FailureCount++
			if st.LastFailure == nil {
				st.LastFailure = &start
			}
		}
	}

	if st.TotalRuns > 0 {
		st.SuccessRate = float64(st.SuccessCount) / float64(st.TotalRuns)
	}
	return st
}
