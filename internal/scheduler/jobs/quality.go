package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/loanqa/internal/contracts"
	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/internal/quality"
	"github.com/wonny/loanqa/internal/scheduler"
	"github.com/wonny/loanqa/pkg/logger"
	"github.com/wonny/loanqa/pkg/redis"
)

// PairLoader reads the origination and performance datasets
type PairLoader func(ctx context.Context) (dataset.Pair, error)

// SnapshotSaver is satisfied by quality.Repository
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snapshot *contracts.QualitySnapshot) error
}

// SnapshotCache is satisfied by redis.Cache
type SnapshotCache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// QualityJob loads the dataset pair, scores it and publishes the snapshot
type QualityJob struct {
	load     PairLoader
	pipeline *quality.Pipeline
	saver    SnapshotSaver // optional
	cache    SnapshotCache // optional
	schedule string
	source   string
	logger   *logger.Logger
}

// NewQualityJob creates a new quality job
func NewQualityJob(load PairLoader, pipeline *quality.Pipeline, schedule string, log *logger.Logger) *QualityJob {
	return &QualityJob{
		load:     load,
		pipeline: pipeline,
		schedule: schedule,
		source:   "scheduler",
		logger:   log,
	}
}

// WithStore persists every snapshot
func (j *QualityJob) WithStore(saver SnapshotSaver) *QualityJob {
	j.saver = saver
	return j
}

// WithCache publishes the latest snapshot to cache
func (j *QualityJob) WithCache(cache SnapshotCache) *QualityJob {
	j.cache = cache
	return j
}

// WithSource labels the snapshots this job produces
func (j *QualityJob) WithSource(source string) *QualityJob {
	j.source = source
	return j
}

// Name returns the job name
func (j *QualityJob) Name() string {
	return "data_quality"
}

// Schedule returns the cron schedule
func (j *QualityJob) Schedule() string {
	return j.schedule
}

// Run executes one scheduled pipeline run
func (j *QualityJob) Run(ctx context.Context) (scheduler.Outcome, error) {
	snapshot, err := j.Execute(ctx)
	if err != nil {
		return scheduler.Outcome{}, err
	}
	return scheduler.Outcome{
		RunID:        snapshot.RunID.String(),
		RemovedLoans: snapshot.RemovedCount(),
		DefinedDims:  snapshot.DefinedCount(),
	}, nil
}

// Execute runs the pipeline once and returns the published snapshot
func (j *QualityJob) Execute(ctx context.Context) (*contracts.QualitySnapshot, error) {
	startedAt := time.Now()

	pair, err := j.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}

	res, err := j.pipeline.Run(ctx, pair)
	if err != nil {
		return nil, err
	}

	snapshot := res.Snapshot(j.source, startedAt, time.Since(startedAt), pair)

	log := j.logger.WithRun(snapshot.RunID.String())

	if j.saver != nil {
		if err := j.saver.SaveSnapshot(ctx, snapshot); err != nil {
			j.invalidateLatest(ctx, log)
			return nil, fmt.Errorf("save snapshot: %w", err)
		}
	}

	if j.cache != nil {
		// cache errors are logged only
		if err := j.cache.Set(ctx, redis.LatestSnapshotKey(), snapshot, redis.TTLMedium); err != nil {
			log.WithError(err).Warn("Failed to cache latest snapshot")
		}
		if err := j.cache.Set(ctx, redis.RunSnapshotKey(snapshot.RunID.String()), snapshot, redis.TTLDaily); err != nil {
			log.WithError(err).Warn("Failed to cache run snapshot")
		}
	}

	log.WithFields(map[string]interface{}{
		"source":   j.source,
		"defined":  snapshot.DefinedCount(),
		"removed":  snapshot.RemovedCount(),
		"duration": time.Since(startedAt),
	}).Info("Quality snapshot published")

	return snapshot, nil
}

// invalidateLatest drops the cached latest snapshot after a failed save;
// /api/quality/latest is then served from the store.
func (j *QualityJob) invalidateLatest(ctx context.Context, log *logger.Logger) {
	if j.cache == nil {
		return
	}
	if err := j.cache.Delete(ctx, redis.LatestSnapshotKey()); err != nil {
		log.WithError(err).Warn("Failed to invalidate latest snapshot")
	}
}
