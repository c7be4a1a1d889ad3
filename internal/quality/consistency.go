package quality

import (
	"math"

	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/internal/report"
)

// CrossField describes a contradictory combination: the date field is
// filled, the status field is not-applicable, yet the reference amount is
// non-zero.
type CrossField struct {
	DateColumn      string
	StatusColumn    string
	ReferenceColumn string
}

// ConsistencyOptions configures the consistency scorer.
// Empty column names disable the checks that need them.
type ConsistencyOptions struct {
	IDColumn     string
	PeriodColumn string
	CrossField   *CrossField
	RateColumn   string
	ModColumn    string
	ModifiedFlag string // value of ModColumn that marks a modified loan
}

// Check is a violation count together with whether it was computed at all
type Check struct {
	Evaluated bool
	Count     int
}

// ConsistencyResult holds the consistency score and the cleaned pair
type ConsistencyResult struct {
	Score         float64
	Monotonicity  Check // row level
	IDDifference  Check // dataset level
	CrossField    Check // row level
	RateChanges   Check // loan level: loans whose rate moved
	ModifiedLoans int
	BothLoans     int
	Removed       []string
	Denominator   int
	Pair          dataset.Pair
}

// ScoreConsistency runs the monotonicity, id-difference, cross-field and
// rate-modification checks. Loans that are both modified and rate-changing
// are removed from both datasets; every rate-changing loan still counts as
// a violation.
//
// The denominator weighs row-level checks by performance rows, loan-level
// checks by origination loans and the id check by 1, measured after removal.
// Checks that could not run do not enter the denominator.
func ScoreConsistency(pair dataset.Pair, opts ConsistencyOptions) ConsistencyResult {
	res := ConsistencyResult{Score: math.NaN()}
	perf := pair.Perf
	idCol := opts.IDColumn

	if idCol != "" && perf.Has(idCol) && perf.Has(opts.PeriodColumn) {
		res.Monotonicity = Check{Evaluated: true, Count: monotonicityViolations(perf.Column(idCol), perf.Column(opts.PeriodColumn))}
	}

	if idCol != "" && pair.Orig.Has(idCol) && perf.Has(idCol) {
		res.IDDifference = Check{Evaluated: true, Count: symmetricDifference(
			dataset.NewIDSet(pair.Orig.LoanIDs(idCol)...),
			dataset.NewIDSet(perf.LoanIDs(idCol)...),
		)}
	}

	if cf := opts.CrossField; cf != nil && perf.Has(cf.DateColumn) && perf.Has(cf.StatusColumn) && perf.Has(cf.ReferenceColumn) {
		res.CrossField = Check{Evaluated: true, Count: crossFieldViolations(
			perf.Column(cf.DateColumn),
			perf.Column(cf.StatusColumn),
			perf.Column(cf.ReferenceColumn),
		)}
	}

	if idCol != "" && perf.Has(idCol) && perf.Has(opts.RateColumn) && perf.Has(opts.ModColumn) {
		flag := opts.ModifiedFlag
		if flag == "" {
			flag = "Y"
		}
		changed, modified := rateModificationFlags(perf.Column(idCol), perf.Column(opts.RateColumn), perf.Column(opts.ModColumn), flag)

		remove := dataset.NewIDSet()
		for id := range changed {
			if modified.Has(id) {
				remove.Add(id)
			}
		}

		res.RateChanges = Check{Evaluated: true, Count: len(changed)}
		res.ModifiedLoans = len(modified)
		res.BothLoans = len(remove)
		res.Removed = remove.Sorted()
		pair = pair.DropLoans(idCol, remove)
	}
	res.Pair = pair

	violations := res.Monotonicity.Count + res.IDDifference.Count + res.CrossField.Count + res.RateChanges.Count

	rows := pair.Perf.Len()
	if res.Monotonicity.Evaluated {
		res.Denominator += rows
	}
	if res.CrossField.Evaluated {
		res.Denominator += rows
	}
	if res.RateChanges.Evaluated {
		res.Denominator += len(pair.Orig.LoanIDs(idCol))
	}
	if res.IDDifference.Evaluated {
		res.Denominator++
	}

	res.Score = ratio(float64(violations), float64(res.Denominator))
	return res
}

// monotonicityViolations counts rows whose period precedes the loan's previous row
func monotonicityViolations(ids, periods []dataset.Value) int {
	prev := make(map[string]dataset.Value)
	n := 0
	for i := range ids {
		if ids[i].IsMissing() {
			continue
		}
		id := ids[i].String()
		if p, ok := prev[id]; ok && periods[i].Less(p) {
			n++
		}
		prev[id] = periods[i]
	}
	return n
}

func symmetricDifference(a, b dataset.IDSet) int {
	n := 0
	for id := range a {
		if !b.Has(id) {
			n++
		}
	}
	for id := range b {
		if !a.Has(id) {
			n++
		}
	}
	return n
}

// crossFieldViolations counts rows with a filled date, a not-applicable
// status and a reference amount other than zero. A missing amount counts as
// non-zero.
func crossFieldViolations(date, status, ref []dataset.Value) int {
	n := 0
	for i := range date {
		if date[i].IsMissing() || !status[i].IsNotApplicable() {
			continue
		}
		if f, ok := ref[i].Float(); ok && f == 0 {
			continue
		}
		n++
	}
	return n
}

// rateModificationFlags returns the loans whose rate moved between
// consecutive rows and the loans flagged modified at least once.
// A rate that turns missing after an observed value counts as a change.
func rateModificationFlags(ids, rates, mods []dataset.Value, flag string) (changed, modified dataset.IDSet) {
	changed = dataset.NewIDSet()
	modified = dataset.NewIDSet()
	prev := make(map[string]dataset.Value)

	for i := range ids {
		if ids[i].IsMissing() {
			continue
		}
		id := ids[i].String()

		if p, ok := prev[id]; ok && !p.IsMissing() && !rates[i].Equal(p) {
			changed.Add(id)
		}
		prev[id] = rates[i]

		if mods[i].IsObserved() && mods[i].String() == flag {
			modified.Add(id)
		}
	}
	return changed, modified
}

// Metrics returns the flat consistency report, listing only evaluated checks
func (r ConsistencyResult) Metrics() report.Metrics {
	var m report.Metrics
	if r.Monotonicity.Evaluated {
		m.AddInt("Temporal_Monotonicity_Violations", r.Monotonicity.Count)
	}
	if r.IDDifference.Evaluated {
		m.AddInt("ID_Difference_Count", r.IDDifference.Count)
	}
	if r.CrossField.Evaluated {
		m.AddInt("Cross_Field_Violations", r.CrossField.Count)
	}
	if r.RateChanges.Evaluated {
		m.AddInt("Loans_with_Rate_Changes", r.RateChanges.Count)
		m.AddInt("Loans_with_Modifications", r.ModifiedLoans)
		m.AddInt("Loans_with_Both", r.BothLoans)
	}
	m.Add("Consistency_Score", round(r.Score, 3))
	return m
}
