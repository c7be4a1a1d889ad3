package quality

import (
	"math"

	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/internal/report"
)

// UniquenessOptions names the key columns per dataset.
// Absent key columns are ignored; with no usable key the full row is compared.
type UniquenessOptions struct {
	OrigKeys []string
	PerfKeys []string
}

// UniquenessResult holds duplicate counts. Duplicates are reported, never removed.
type UniquenessResult struct {
	Score          float64
	OrigDuplicates int
	PerfDuplicates int
	Rows           int
}

// ScoreUniqueness counts rows repeating an earlier row's key
func ScoreUniqueness(pair dataset.Pair, opts UniquenessOptions) UniquenessResult {
	res := UniquenessResult{
		OrigDuplicates: countDuplicates(pair.Orig, opts.OrigKeys),
		PerfDuplicates: countDuplicates(pair.Perf, opts.PerfKeys),
		Rows:           pair.Orig.Len() + pair.Perf.Len(),
	}
	res.Score = math.NaN()
	if res.Rows > 0 {
		res.Score = ratio(float64(res.OrigDuplicates+res.PerfDuplicates), float64(res.Rows))
	}
	return res
}

func countDuplicates(ds *dataset.Dataset, keys []string) int {
	if ds.Len() == 0 {
		return 0
	}

	cols := make([]string, 0, len(keys))
	for _, k := range keys {
		if ds.Has(k) {
			cols = append(cols, k)
		}
	}
	if len(cols) == 0 {
		cols = ds.Columns()
	}

	seen := make(map[string]struct{}, ds.Len())
	dups := 0
	for i := 0; i < ds.Len(); i++ {
		key := ds.RowKey(i, cols)
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// Metrics returns the flat uniqueness report
func (r UniquenessResult) Metrics() report.Metrics {
	var m report.Metrics
	m.AddInt("duplicates_orig", r.OrigDuplicates)
	m.AddInt("duplicates_perf", r.PerfDuplicates)
	m.AddInt("total_records", r.Rows)
	m.Add("Uniqueness_Score", round(r.Score, 6))
	return m
}
