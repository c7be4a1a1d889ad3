package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, quantile(sorted, tt.q), 1e-12, "q=%v", tt.q)
	}

	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}

func TestDispersion(t *testing.T) {
	values := []float64{1, 2, 3, 4, 100}

	assert.Equal(t, 3.0, median(sortedCopy(values)))
	assert.Equal(t, 1.0, medianAbsDev(values, 3))
	assert.Equal(t, 0.0, medianAbsDev([]float64{1, 1, 1, 1, 1, 100}, 1))
	assert.InDelta(t, 2.13809, stdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-5)
	assert.Equal(t, 0.0, stdDev([]float64{7}))
	assert.True(t, math.IsNaN(mean(nil)))
}

func TestRatioAndRound(t *testing.T) {
	assert.Equal(t, 0.75, ratio(1, 4))
	assert.Equal(t, 1.0, ratio(0, 10))
	assert.True(t, math.IsNaN(ratio(0, 0)))

	assert.Equal(t, 0.123, round(0.12345, 3))
	assert.Equal(t, 2.72, round(2.71828, 2))
	assert.True(t, math.IsNaN(round(math.NaN(), 3)))
}

func TestSortedCopy_DoesNotMutate(t *testing.T) {
	values := []float64{3, 1, 2}
	sorted := sortedCopy(values)

	assert.Equal(t, []float64{1, 2, 3}, sorted)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
