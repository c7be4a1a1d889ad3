package quality

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loanqa/internal/contracts"
	"github.com/wonny/loanqa/pkg/config"
	"github.com/wonny/loanqa/pkg/database"
)

func integrationRepository(t *testing.T) *Repository {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestRepository_SaveAndGet(t *testing.T) {
	repo := integrationRepository(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap := &contracts.QualitySnapshot{
		RunID:      uuid.New(),
		StartedAt:  time.Now().UTC().Truncate(time.Millisecond),
		DurationMS: 1500,
		Source:     "test",
		Dimensions: []contracts.DimensionScore{
			{Dimension: DimensionAccuracy, Score: 0.998},
			{Dimension: DimensionRepresentativeness, Score: contracts.Score(math.NaN())},
		},
		Removed: map[string][]string{DimensionCompleteness: {"F1", "F2"}},
	}
	require.NoError(t, repo.SaveSnapshot(ctx, snap))
	// saving the same run twice updates it
	require.NoError(t, repo.SaveSnapshot(ctx, snap))

	got, err := repo.GetByRunID(ctx, snap.RunID)
	require.NoError(t, err)
	assert.Equal(t, snap.RunID, got.RunID)
	assert.Equal(t, 2, got.RemovedCount())
	score, ok := got.Score(DimensionRepresentativeness)
	require.True(t, ok)
	assert.True(t, score.Undefined())

	runs, err := repo.List(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, runs)
	assert.LessOrEqual(t, len(runs), 5)

	_, err = repo.GetByRunID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
