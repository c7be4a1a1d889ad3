package quality

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports pipeline results to Prometheus
type Metrics struct {
	score    *prometheus.GaugeVec
	removed  *prometheus.CounterVec
	duration prometheus.Histogram
	runs     *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		score: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "loanqa",
			Name:      "dimension_score",
			Help:      "Latest data quality score per dimension (absent when undefined).",
		}, []string{"dimension"}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanqa",
			Name:      "removed_loans_total",
			Help:      "Loans removed from the dataset pair, by dimension.",
		}, []string{"dimension"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "loanqa",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanqa",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.score, m.removed, m.duration, m.runs)
	return m
}

// ObserveRun records the outcome of a successful run
func (m *Metrics) ObserveRun(summary Summary, removed map[string][]string, elapsed time.Duration) {
	if m == nil {
		return
	}
	for _, d := range summary {
		if math.IsNaN(d.Score) {
			m.score.DeleteLabelValues(d.Dimension)
			continue
		}
		m.score.WithLabelValues(d.Dimension).Set(d.Score)
	}
	for dim, ids := range removed {
		m.removed.WithLabelValues(dim).Add(float64(len(ids)))
	}
	m.duration.Observe(elapsed.Seconds())
	m.runs.WithLabelValues("success").Inc()
}

// ObserveFailure counts a run that did not complete
func (m *Metrics) ObserveFailure() {
	if m == nil {
		return
	}
	m.runs.WithLabelValues("failure").Inc()
}
