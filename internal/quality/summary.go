package quality

import (
	"github.com/wonny/loanqa/internal/report"
)

// Dimension names, in summary order
const (
	DimensionAccuracy           = "Accuracy & Validity"
	DimensionCompleteness       = "Completeness"
	DimensionConsistency        = "Consistency"
	DimensionUniqueness         = "Uniqueness"
	DimensionOutliers           = "Outliers"
	DimensionRepresentativeness = "Representativeness"
)

// Dimensions lists every dimension in summary order
var Dimensions = []string{
	DimensionAccuracy,
	DimensionCompleteness,
	DimensionConsistency,
	DimensionUniqueness,
	DimensionOutliers,
	DimensionRepresentativeness,
}

// DimensionScore is one line of the summary
type DimensionScore struct {
	Dimension string
	Score     float64 // rounded to 3 decimals; NaN when undefined
}

// Summary juxtaposes the six dimension scores without weighting
type Summary []DimensionScore

// Scores carries the raw dimension scores into Summarize
type Scores struct {
	Accuracy           float64
	Completeness       float64
	Consistency        float64
	Uniqueness         float64
	Outliers           float64
	Representativeness float64
}

// Summarize rounds each score to 3 decimals and orders them by dimension
func Summarize(s Scores) Summary {
	raw := []float64{s.Accuracy, s.Completeness, s.Consistency, s.Uniqueness, s.Outliers, s.Representativeness}
	out := make(Summary, len(Dimensions))
	for i, dim := range Dimensions {
		out[i] = DimensionScore{Dimension: dim, Score: round(raw[i], 3)}
	}
	return out
}

// Score returns the score of a dimension
func (s Summary) Score(dimension string) (float64, bool) {
	for _, d := range s {
		if d.Dimension == dimension {
			return d.Score, true
		}
	}
	return 0, false
}

// Table renders the summary with a Data Quality Dimension,Score header
func (s Summary) Table(name string) report.Table {
	t := report.Table{Name: name, Columns: []string{"Data Quality Dimension", "Score"}}
	for _, d := range s {
		t.Rows = append(t.Rows, []string{d.Dimension, report.FormatFloat(d.Score)})
	}
	return t
}
