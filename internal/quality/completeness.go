package quality

import (
	"math"
	"sort"

	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/internal/report"
)

// CompletenessOptions configures the completeness scorer
type CompletenessOptions struct {
	IDColumn       string
	PeriodColumn   string
	ExcludeColumns []string
	CutoffYear     int // loans first reported after this year are removed; 0 disables
}

// CompletenessResult holds the completeness score and the cleaned pair
type CompletenessResult struct {
	Score       float64
	TotalCells  int // non-excluded cells of both datasets, before gap cells
	Missing     int // type 1
	GapMonths   int // type 2
	GapCells    int
	GapLoans    []string
	CutoffLoans []string
	GapChecked  bool
	Pair        dataset.Pair
}

// Removed returns every loan dropped by the scorer
func (r CompletenessResult) Removed() dataset.IDSet {
	ids := dataset.NewIDSet(r.GapLoans...)
	ids.Union(dataset.NewIDSet(r.CutoffLoans...))
	return ids
}

// ScoreCompleteness counts missing cells (type 1) and missing reporting
// months (type 2). Every gap month is charged as a fully blank performance
// row. Loans with an internal gap, and loans first reported after the
// cutoff year, are removed from both datasets.
//
// The cutoff filter runs first so the score describes the retained window.
func ScoreCompleteness(pair dataset.Pair, opts CompletenessOptions) CompletenessResult {
	res := CompletenessResult{Score: math.NaN()}

	periods, ok := loanPeriods(pair.Perf, opts.IDColumn, opts.PeriodColumn)
	res.GapChecked = ok

	if ok && opts.CutoffYear > 0 {
		cutoff := dataset.NewIDSet()
		for id, months := range periods {
			first := months[0]
			if (first-1)/12 > opts.CutoffYear {
				cutoff.Add(id)
			}
		}
		res.CutoffLoans = cutoff.Sorted()
		pair = pair.DropLoans(opts.IDColumn, cutoff)
		for id := range cutoff {
			delete(periods, id)
		}
	}

	// Type 1: missing values
	exclude := dataset.NewIDSet(opts.ExcludeColumns...)
	for _, ds := range []*dataset.Dataset{pair.Orig, pair.Perf} {
		for _, col := range ds.Columns() {
			if exclude.Has(col) {
				continue
			}
			for _, v := range ds.Column(col) {
				if v.IsMissing() {
					res.Missing++
				}
			}
			res.TotalCells += ds.Len()
		}
	}

	// Type 2: temporal gaps
	gapLoans := dataset.NewIDSet()
	for id, months := range periods {
		for i := 1; i < len(months); i++ {
			if diff := months[i] - months[i-1]; diff > 1 {
				res.GapMonths += diff - 1
				gapLoans.Add(id)
			}
		}
	}
	res.GapLoans = gapLoans.Sorted()

	width := len(pair.Perf.Columns()) - len(opts.ExcludeColumns)
	if width < 0 {
		width = 0
	}
	res.GapCells = res.GapMonths * width

	res.Score = ratio(
		float64(res.Missing+res.GapCells),
		float64(res.TotalCells+res.GapCells),
	)
	res.Pair = pair.DropLoans(opts.IDColumn, gapLoans)
	return res
}

// loanPeriods returns the sorted month indices of every loan.
// Rows with a missing id or an unparseable period are ignored.
func loanPeriods(perf *dataset.Dataset, idCol, periodCol string) (map[string][]int, bool) {
	if idCol == "" || periodCol == "" || !perf.Has(idCol) || !perf.Has(periodCol) {
		return nil, false
	}

	ids := perf.Column(idCol)
	dates := perf.Column(periodCol)
	out := make(map[string][]int)
	for i := range ids {
		if ids[i].IsMissing() {
			continue
		}
		idx, ok := dates[i].MonthIndex()
		if !ok {
			continue
		}
		id := ids[i].String()
		out[id] = append(out[id], idx)
	}
	for _, months := range out {
		sort.Ints(months)
	}
	return out, true
}

// Metrics returns the flat completeness report
func (r CompletenessResult) Metrics() report.Metrics {
	var m report.Metrics
	m.AddInt("Total Cells", r.TotalCells+r.GapCells)
	m.AddInt("Type 1 missing values", r.Missing)
	m.AddInt("Type 2 gap months", r.GapMonths)
	m.AddInt("Type 2 gap cells", r.GapCells)
	m.Add("Completeness_Score", round(r.Score, 6))
	m.AddInt("Loans_with_Gaps", len(r.GapLoans))
	m.AddInt("Loans_after_cutoff", len(r.CutoffLoans))
	return m
}
