package quality

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/internal/report"
	"github.com/wonny/loanqa/internal/rules"
)

// RuleOutcome is the evaluation of one rule against one dataset
type RuleOutcome struct {
	Dataset    string
	Column     string
	Kind       rules.Kind
	Violations int
	Rows       int
}

// AccuracyResult holds the accuracy/validity score and its rule-level detail
type AccuracyResult struct {
	Score      float64 // NaN when no rule matched a column
	Violations int
	Checks     int
	Outcomes   []RuleOutcome
	Skipped    []string // dataset.column of rules whose column is absent
}

// ScoreAccuracy evaluates every rule whose column exists.
// Each matched rule adds the dataset's full row count to the check total.
// Nothing is removed from the datasets.
func ScoreAccuracy(datasets map[string]*dataset.Dataset, set rules.Set) AccuracyResult {
	res := AccuracyResult{Score: math.NaN()}

	for _, name := range set.Names() {
		ds := datasets[name]
		for _, rule := range set[name] {
			if !ds.Has(rule.Column) {
				res.Skipped = append(res.Skipped, name+"."+rule.Column)
				continue
			}

			violations := rule.Evaluate(ds.Column(rule.Column)).Count()
			res.Violations += violations
			res.Checks += ds.Len()
			res.Outcomes = append(res.Outcomes, RuleOutcome{
				Dataset:    name,
				Column:     rule.Column,
				Kind:       rule.Kind,
				Violations: violations,
				Rows:       ds.Len(),
			})
		}
	}

	if res.Checks > 0 {
		res.Score = ratio(float64(res.Violations), float64(res.Checks))
	}
	return res
}

// Metrics returns the flat accuracy report
func (r AccuracyResult) Metrics() report.Metrics {
	var m report.Metrics
	m.AddInt("Rules evaluated", len(r.Outcomes))
	m.AddInt("Rules skipped", len(r.Skipped))
	m.AddInt("Total checks", r.Checks)
	m.AddInt("Total violations", r.Violations)
	m.Add("OverallAccuracyValidityScore", round(r.Score, 4))
	return m
}

// RuleTable lists violations per evaluated rule
func (r AccuracyResult) RuleTable(name string) report.Table {
	t := report.Table{
		Name:    name,
		Columns: []string{"Dataset", "Column", "Rule", "Violations", "Rows"},
	}
	for _, o := range r.Outcomes {
		t.Rows = append(t.Rows, []string{
			o.Dataset,
			o.Column,
			string(o.Kind),
			strconv.Itoa(o.Violations),
			strconv.Itoa(o.Rows),
		})
	}
	return t
}

// String is used in log lines
func (o RuleOutcome) String() string {
	return fmt.Sprintf("%s.%s[%s] %d/%d", o.Dataset, o.Column, o.Kind, o.Violations, o.Rows)
}
