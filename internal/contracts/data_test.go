package contracts

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_JSON(t *testing.T) {
	data, err := json.Marshal([]Score{0.5, Score(math.NaN())})
	require.NoError(t, err)
	assert.JSONEq(t, `[0.5, null]`, string(data))

	var back []Score
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 2)
	assert.Equal(t, Score(0.5), back[0])
	assert.True(t, back[1].Undefined())
}

func TestQualitySnapshot_JSONRoundTrip(t *testing.T) {
	snap := QualitySnapshot{
		RunID:     uuid.New(),
		StartedAt: time.Date(2026, 1, 8, 6, 0, 0, 0, time.UTC),
		Dimensions: []DimensionScore{
			{Dimension: "Completeness", Score: 0.998},
			{Dimension: "Outliers", Score: Score(math.NaN())},
		},
		Metrics: map[string]map[string]Score{
			"Completeness": {"Loans_with_Gaps": 2},
		},
		Removed: map[string][]string{
			"Completeness": {"F100", "F200"},
			"Consistency":  {"F300"},
		},
	}

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var back QualitySnapshot
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, snap.RunID, back.RunID)
	assert.Equal(t, 3, back.RemovedCount())
	assert.Equal(t, 1, back.DefinedCount())

	score, ok := back.Score("Completeness")
	assert.True(t, ok)
	assert.Equal(t, Score(0.998), score)

	score, ok = back.Score("Outliers")
	assert.True(t, ok)
	assert.True(t, score.Undefined())

	_, ok = back.Score("Timeliness")
	assert.False(t, ok)
}
