package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loanqa/pkg/logger"
)

// stubJob fails its first `failures` runs
type stubJob struct {
	name     string
	schedule string
	failures int

	mu    sync.Mutex
	calls int
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) (Outcome, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	if j.calls <= j.failures {
		return Outcome{}, errors.New("transient")
	}
	return Outcome{RunID: fmt.Sprintf("run-%d", j.calls), RemovedLoans: 3, DefinedDims: 6}, nil
}

func (j *stubJob) Calls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}

func newTestScheduler(maxRetries int) *Scheduler {
	return New(logger.Nop(), WithRetry(maxRetries, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&stubJob{name: "b", schedule: "0 0 6 * * *"}))
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))

	err := s.AddJob(&stubJob{name: "a", schedule: "@hourly"})
	assert.ErrorContains(t, err, "already exists")

	err = s.AddJob(&stubJob{name: "c", schedule: "0 6 * * *"})
	assert.ErrorContains(t, err, "failed to schedule", "five-field expressions are rejected")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRunJob_Retries(t *testing.T) {
	tests := []struct {
		name        string
		maxRetries  int
		failures    int
		wantSuccess bool
		wantCalls   int
	}{
		{"first attempt", 2, 0, true, 1},
		{"recovers on retry", 2, 2, true, 3},
		{"exhausts retries", 1, 5, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(tt.maxRetries)
			job := &stubJob{name: "quality", schedule: "@daily", failures: tt.failures}
			require.NoError(t, s.AddJob(job))

			result, err := s.RunJob(context.Background(), "quality")
			require.NoError(t, err)

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantCalls, job.Calls())
			assert.Equal(t, tt.wantCalls, result.Attempts)
			if tt.wantSuccess {
				assert.Equal(t, fmt.Sprintf("run-%d", tt.wantCalls), result.RunID)
				assert.Equal(t, 3, result.RemovedLoans)
			} else {
				assert.Equal(t, "transient", result.Error)
				assert.Empty(t, result.RunID)
			}

			history, err := s.GetJobHistory("quality", 0)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, result, history[0])
		})
	}
}

func TestRunJob_CancelStopsRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &stubJob{name: "quality", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunJob(ctx, "quality")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, job.Calls())
	assert.Contains(t, result.Error, "context canceled")
}

func TestRunJob_Unknown(t *testing.T) {
	_, err := newTestScheduler(0).RunJob(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestGetJobHistory(t *testing.T) {
	s := newTestScheduler(0)
	require.NoError(t, s.AddJob(&stubJob{name: "quality", schedule: "@daily", failures: 1}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = s.RunJob(ctx, "quality")
	}

	all, err := s.GetJobHistory("quality", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-3", all[0].RunID, "newest first")
	assert.False(t, all[2].Success)

	latest, err := s.GetJobHistory("quality", 1)
	require.NoError(t, err)
	assert.Equal(t, all[:1], latest)

	_, err = s.GetJobHistory("missing", 1)
	assert.ErrorContains(t, err, "not found")
}

func TestGetJobStats(t *testing.T) {
	s := newTestScheduler(0)
	job := &stubJob{name: "quality", schedule: "@daily", failures: 1}
	require.NoError(t, s.AddJob(job))

	ctx := context.Background()
	_, _ = s.RunJob(ctx, "quality") // fails
	_, _ = s.RunJob(ctx, "quality") // succeeds

	stats := s.GetJobStats()["quality"]
	assert.Equal(t, "@daily", stats.Schedule)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	require.NotNil(t, stats.LastRun)
	require.NotNil(t, stats.LastSuccess)
	require.NotNil(t, stats.LastFailure)
	assert.False(t, stats.LastFailure.After(*stats.LastSuccess))
	assert.Equal(t, "run-2", stats.LastRunID)

	// next run is known before Start
	require.NotNil(t, stats.NextRun)
	assert.True(t, stats.NextRun.After(time.Now()))
}

func TestNextRun(t *testing.T) {
	s := newTestScheduler(0)
	require.NoError(t, s.AddJob(&stubJob{name: "quality", schedule: "@hourly"}))

	before, err := s.NextRun("quality")
	require.NoError(t, err)
	assert.True(t, before.After(time.Now()))
	assert.False(t, before.After(time.Now().Add(time.Hour)))

	s.Start()
	defer s.Stop()

	next, err := s.NextRun("quality")
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))

	_, err = s.NextRun("missing")
	assert.Error(t, err)
}

func TestJobHistory(t *testing.T) {
	var h JobHistory
	assert.Empty(t, h.Latest(5))
	st := h.stats()
	assert.Equal(t, 0.0, st.SuccessRate)
	assert.Nil(t, st.LastRun)

	for i := 0; i < maxHistory+10; i++ {
		h.Add(JobResult{JobName: "quality", Success: i%2 == 0, Outcome: Outcome{RunID: fmt.Sprint(i)}})
	}

	assert.Equal(t, maxHistory, h.Len())
	latest := h.Latest(3)
	require.Len(t, latest, 3)
	assert.Equal(t, fmt.Sprint(maxHistory+9), latest[0].RunID)

	st = h.stats()
	assert.Equal(t, maxHistory/2, st.FailureCount)
	assert.InDelta(t, 0.5, st.SuccessRate, 1e-9)
	assert.Equal(t, fmt.Sprint(maxHistory+8), st.LastRunID)
}
