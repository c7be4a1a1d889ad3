package quality

import (
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := Summarize(Scores{
		Accuracy:           0.99876,
		Completeness:       1,
		Consistency:        0.7142857,
		Uniqueness:         math.NaN(),
		Outliers:           0.8333333,
		Representativeness: 0.5,
	})

	require.Len(t, s, len(Dimensions))
	for i, d := range s {
		assert.Equal(t, Dimensions[i], d.Dimension)
	}

	score, ok := s.Score(DimensionAccuracy)
	assert.True(t, ok)
	assert.Equal(t, 0.999, score)

	score, _ = s.Score(DimensionConsistency)
	assert.Equal(t, 0.714, score)

	score, _ = s.Score(DimensionUniqueness)
	assert.True(t, math.IsNaN(score))

	_, ok = s.Score("Timeliness")
	assert.False(t, ok)

	table := s.Table("data_quality_summary")
	assert.Equal(t, []string{"Data Quality Dimension", "Score"}, table.Columns)
	assert.Equal(t, []string{"Uniqueness", ""}, table.Rows[3])
	assert.Equal(t, []string{"Outliers", "0.833"}, table.Rows[4])
}

func gatherValues(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			switch {
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestMetrics_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	summary := Summarize(Scores{
		Accuracy: 1, Completeness: 0.9, Consistency: 0.8,
		Uniqueness: 1, Outliers: math.NaN(), Representativeness: 0.5,
	})
	m.ObserveRun(summary, map[string][]string{DimensionCompleteness: {"A", "B"}}, 2*time.Second)
	m.ObserveFailure()

	values := gatherValues(t, reg)
	assert.Equal(t, 0.9, values["loanqa_dimension_score/Completeness"])
	assert.NotContains(t, values, "loanqa_dimension_score/Outliers")
	assert.Equal(t, 2.0, values["loanqa_removed_loans_total/Completeness"])
	assert.Equal(t, 1.0, values["loanqa_run_duration_seconds"])
	assert.Equal(t, 1.0, values["loanqa_runs_total/success"])
	assert.Equal(t, 1.0, values["loanqa_runs_total/failure"])
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun(nil, nil, time.Second)
		m.ObserveFailure()
	})
}
