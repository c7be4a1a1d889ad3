package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/loanqa/internal/dataset"
)

func TestScoreUniqueness(t *testing.T) {
	tests := []struct {
		name     string
		pair     func(t *testing.T) dataset.Pair
		opts     UniquenessOptions
		wantOrig int
		wantPerf int
		want     float64
	}{
		{
			name: "duplicate loan-month",
			pair: func(t *testing.T) dataset.Pair {
				return dataset.Pair{
					Orig: build(t, "orig", []string{"id"}, row(text("A"))),
					Perf: build(t, "perf", []string{"id", "period", "upb"},
						row(text("A"), month(2010, 1), num(100)),
						row(text("A"), month(2010, 1), num(99)),
						row(text("A"), month(2010, 2), num(98)),
					),
				}
			},
			opts:     UniquenessOptions{OrigKeys: []string{"id"}, PerfKeys: []string{"id", "period"}},
			wantPerf: 1,
			want:     0.75,
		},
		{
			name: "absent keys fall back to full rows",
			pair: func(t *testing.T) dataset.Pair {
				return dataset.Pair{
					Orig: build(t, "orig", []string{"id", "upb"},
						row(text("A"), num(1)),
						row(text("A"), num(1)),
						row(text("A"), num(2)),
					),
				}
			},
			opts:     UniquenessOptions{OrigKeys: []string{"loan"}},
			wantOrig: 1,
			want:     1 - 1.0/3,
		},
		{
			name: "missing keys compare equal",
			pair: func(t *testing.T) dataset.Pair {
				return dataset.Pair{
					Orig: build(t, "orig", []string{"id"}, row(null()), row(null())),
				}
			},
			opts:     UniquenessOptions{OrigKeys: []string{"id"}},
			wantOrig: 1,
			want:     0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := tt.pair(t)
			before := pair.Orig.Len() + pair.Perf.Len()

			res := ScoreUniqueness(pair, tt.opts)

			assert.Equal(t, tt.wantOrig, res.OrigDuplicates)
			assert.Equal(t, tt.wantPerf, res.PerfDuplicates)
			assert.Equal(t, before, res.Rows)
			assert.InDelta(t, tt.want, res.Score, 1e-12)
		})
	}
}

func TestScoreUniqueness_Empty(t *testing.T) {
	res := ScoreUniqueness(dataset.Pair{}, UniquenessOptions{})
	assert.True(t, math.IsNaN(res.Score))
}
