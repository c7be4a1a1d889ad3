package quality

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/loanqa/internal/contracts"
	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/internal/report"
	"github.com/wonny/loanqa/internal/rules"
	"github.com/wonny/loanqa/pkg/logger"
)

// Options carries the column configuration of every scorer
type Options struct {
	IDColumn     string
	PeriodColumn string

	Rules rules.Set

	ExcludeColumns []string
	CutoffYear     int

	CrossField *CrossField
	RateColumn string
	ModColumn  string

	OrigKeys []string
	PerfKeys []string

	OutlierColumns []string

	PerfVariables VariableClasses
	OrigVariables VariableClasses
}

// DefaultOptions returns the configuration for the Freddie Mac
// single-family origination and servicing files
func DefaultOptions() Options {
	return Options{
		IDColumn:       "LoanSequenceNumber",
		PeriodColumn:   "MonthlyReportingPeriod",
		Rules:          rules.Default(),
		ExcludeColumns: []string{"ZeroBalanceEffectiveDate"},
		CutoffYear:     2011,
		CrossField: &CrossField{
			DateColumn:      "ZeroBalanceEffectiveDate",
			StatusColumn:    "ZeroBalanceCode",
			ReferenceColumn: "CurrentActualUPB",
		},
		RateColumn:     "CurrentInterestRate",
		ModColumn:      "ModificationFlag",
		OrigKeys:       []string{"LoanSequenceNumber"},
		PerfKeys:       []string{"LoanSequenceNumber", "MonthlyReportingPeriod"},
		OutlierColumns: []string{"CurrentInterestRate", "EstimatedLTV", "CurrentActualUPB"},
		PerfVariables: VariableClasses{
			Categorical: []string{"ZeroBalanceCode"},
			Numeric:     []string{"CurrentActualUPB", "CurrentInterestRate", "EstimatedLTV"},
		},
		OrigVariables: VariableClasses{
			Binary:  []string{"PPM_Flag", "InterestOnlyFlag"},
			Numeric: []string{"UPB"},
		},
	}
}

// Sink receives report tables (report.Writer in production)
type Sink interface {
	Write(t report.Table) error
}

// Result is everything one run produced
type Result struct {
	RunID   uuid.UUID
	Summary Summary
	Pair    dataset.Pair // cleaned pair for downstream analysis

	Accuracy           AccuracyResult
	Completeness       CompletenessResult
	Consistency        ConsistencyResult
	Uniqueness         UniquenessResult
	Outliers           OutlierResult
	Representativeness []RepresentativenessReport // perf, orig

	Removed map[string][]string // dimension → sorted loan ids
}

// Pipeline runs the six scorers in order over a dataset pair
// ⭐ SSOT: 스코어 실행 순서는 여기서만 정의
type Pipeline struct {
	opts    Options
	sink    Sink
	metrics *Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewPipeline creates a pipeline without report output or metrics
func NewPipeline(opts Options, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		opts:   opts,
		logger: log,
		now:    time.Now,
	}
}

// WithSink writes every report table to s
func (p *Pipeline) WithSink(s Sink) *Pipeline {
	p.sink = s
	return p
}

// WithMetrics records run results on m
func (p *Pipeline) WithMetrics(m *Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Options returns the scorer configuration
func (p *Pipeline) Options() Options {
	return p.opts
}

// stage consumes the pair left by the previous stage and returns the pair
// the next stage sees
type stage struct {
	dimension string
	run       func(pair dataset.Pair, res *Result) dataset.Pair
}

func (p *Pipeline) stages() []stage {
	o := p.opts
	return []stage{
		{DimensionAccuracy, func(pair dataset.Pair, res *Result) dataset.Pair {
			res.Accuracy = ScoreAccuracy(pair.ByName(), o.Rules)
			return pair
		}},
		{DimensionCompleteness, func(pair dataset.Pair, res *Result) dataset.Pair {
			res.Completeness = ScoreCompleteness(pair, CompletenessOptions{
				IDColumn:       o.IDColumn,
				PeriodColumn:   o.PeriodColumn,
				ExcludeColumns: o.ExcludeColumns,
				CutoffYear:     o.CutoffYear,
			})
			res.Removed[DimensionCompleteness] = res.Completeness.Removed().Sorted()
			return res.Completeness.Pair
		}},
		{DimensionConsistency, func(pair dataset.Pair, res *Result) dataset.Pair {
			res.Consistency = ScoreConsistency(pair, ConsistencyOptions{
				IDColumn:     o.IDColumn,
				PeriodColumn: o.PeriodColumn,
				CrossField:   o.CrossField,
				RateColumn:   o.RateColumn,
				ModColumn:    o.ModColumn,
			})
			res.Removed[DimensionConsistency] = res.Consistency.Removed
			return res.Consistency.Pair
		}},
		{DimensionUniqueness, func(pair dataset.Pair, res *Result) dataset.Pair {
			res.Uniqueness = ScoreUniqueness(pair, UniquenessOptions{OrigKeys: o.OrigKeys, PerfKeys: o.PerfKeys})
			return pair
		}},
		{DimensionOutliers, func(pair dataset.Pair, res *Result) dataset.Pair {
			res.Outliers = ScoreOutliers(pair.Perf, OutlierOptions{Columns: o.OutlierColumns})
			return pair
		}},
		{DimensionRepresentativeness, func(pair dataset.Pair, res *Result) dataset.Pair {
			res.Representativeness = []RepresentativenessReport{
				CheckRepresentativeness(pair.Perf, o.PerfVariables),
				CheckRepresentativeness(pair.Orig, o.OrigVariables),
			}
			return pair
		}},
	}
}

// Run scores the pair. Stages run strictly in sequence; cancellation is
// honoured between stages only.
func (p *Pipeline) Run(ctx context.Context, pair dataset.Pair) (*Result, error) {
	started := p.now()
	res := &Result{
		RunID:   uuid.New(),
		Removed: make(map[string][]string),
	}
	log := p.logger.WithRun(res.RunID.String())

	log.WithFields(map[string]interface{}{
		"orig_rows": pair.Orig.Len(),
		"perf_rows": pair.Perf.Len(),
	}).Info("Data quality run started")

	for _, st := range p.stages() {
		if err := ctx.Err(); err != nil {
			p.metrics.ObserveFailure()
			return nil, fmt.Errorf("run cancelled before %s: %w", st.dimension, err)
		}
		before := pair
		pair = st.run(pair, res)

		log.WithDimension(st.dimension).WithFields(map[string]interface{}{
			"score":     logScore(res.rawScore(st.dimension)),
			"removed":   len(res.Removed[st.dimension]),
			"orig_rows": fmt.Sprintf("%d→%d", before.Orig.Len(), pair.Orig.Len()),
			"perf_rows": fmt.Sprintf("%d→%d", before.Perf.Len(), pair.Perf.Len()),
		}).Info("Dimension scored")
	}
	res.Pair = pair
	p.logSkipped(log, res)

	res.Summary = Summarize(Scores{
		Accuracy:           res.Accuracy.Score,
		Completeness:       res.Completeness.Score,
		Consistency:        res.Consistency.Score,
		Uniqueness:         res.Uniqueness.Score,
		Outliers:           res.Outliers.Score,
		Representativeness: OverallRepresentativeness(res.Representativeness...),
	})

	if p.sink != nil {
		for _, t := range res.Tables() {
			if err := p.sink.Write(t); err != nil {
				p.metrics.ObserveFailure()
				return nil, fmt.Errorf("write report %s: %w", t.Name, err)
			}
		}
	}

	elapsed := p.now().Sub(started)
	p.metrics.ObserveRun(res.Summary, res.Removed, elapsed)

	log.WithFields(map[string]interface{}{
		"duration":  elapsed,
		"removed":   len(res.removedIDs()),
		"orig_rows": res.Pair.Orig.Len(),
		"perf_rows": res.Pair.Perf.Len(),
	}).Info("Data quality run completed")

	return res, nil
}

func (p *Pipeline) logSkipped(log *logger.Logger, res *Result) {
	skipped := map[string][]string{
		DimensionAccuracy: res.Accuracy.Skipped,
		DimensionOutliers: res.Outliers.Skipped,
	}
	for _, r := range res.Representativeness {
		skipped[DimensionRepresentativeness] = append(skipped[DimensionRepresentativeness], r.Skipped...)
	}
	if !res.Completeness.GapChecked {
		skipped[DimensionCompleteness] = []string{p.opts.PeriodColumn}
	}

	for _, o := range res.Accuracy.Outcomes {
		if o.Violations > 0 {
			log.Debugf("Rule violated: %s", o)
		}
	}

	for _, dim := range Dimensions {
		if cols := skipped[dim]; len(cols) > 0 {
			log.WithDimension(dim).WithField("columns", cols).Warn("Checks skipped: columns absent")
		}
	}
}

// rawScore returns the unrounded score a stage produced
func (r *Result) rawScore(dimension string) float64 {
	switch dimension {
	case DimensionAccuracy:
		return r.Accuracy.Score
	case DimensionCompleteness:
		return r.Completeness.Score
	case DimensionConsistency:
		return r.Consistency.Score
	case DimensionUniqueness:
		return r.Uniqueness.Score
	case DimensionOutliers:
		return r.Outliers.Score
	case DimensionRepresentativeness:
		return OverallRepresentativeness(r.Representativeness...)
	default:
		return math.NaN()
	}
}

func (r *Result) removedIDs() dataset.IDSet {
	ids := dataset.NewIDSet()
	for _, list := range r.Removed {
		ids.Union(dataset.NewIDSet(list...))
	}
	return ids
}

// Metrics returns the flat report of each dimension
func (r *Result) Metrics() map[string]report.Metrics {
	var rep report.Metrics
	rep.AddInt("Variables evaluated", r.variableCount())
	rep.Add("Representativeness_Score", round(OverallRepresentativeness(r.Representativeness...), 3))

	return map[string]report.Metrics{
		DimensionAccuracy:           r.Accuracy.Metrics(),
		DimensionCompleteness:       r.Completeness.Metrics(),
		DimensionConsistency:        r.Consistency.Metrics(),
		DimensionUniqueness:         r.Uniqueness.Metrics(),
		DimensionOutliers:           r.Outliers.Metrics(),
		DimensionRepresentativeness: rep,
	}
}

func (r *Result) variableCount() int {
	n := 0
	for _, rep := range r.Representativeness {
		n += len(rep.Variables)
	}
	return n
}

// Tables returns every report artifact of the run
func (r *Result) Tables() []report.Table {
	tables := []report.Table{
		r.Accuracy.Metrics().Table("accuracy_validity_report"),
		r.Accuracy.RuleTable("accuracy_validity_rules"),
		r.Completeness.Metrics().Table("completeness_report"),
		r.Consistency.Metrics().Table("consistency_report"),
		r.Uniqueness.Metrics().Table("uniqueness_report"),
		r.Outliers.Table("outlier_report_perf"),
	}
	for _, rep := range r.Representativeness {
		tables = append(tables, rep.Table("representativeness_"+rep.Dataset))
	}

	removed := report.Table{Name: "removed_loans", Columns: []string{"Data Quality Dimension", "LoanSequenceNumber"}}
	for _, dim := range Dimensions {
		for _, id := range r.Removed[dim] {
			removed.Rows = append(removed.Rows, []string{dim, id})
		}
	}
	tables = append(tables, removed, r.Summary.Table("data_quality_summary"))
	return tables
}

// Snapshot converts the result into the persisted / served form
func (r *Result) Snapshot(source string, startedAt time.Time, elapsed time.Duration, input dataset.Pair) *contracts.QualitySnapshot {
	snap := &contracts.QualitySnapshot{
		RunID:         r.RunID,
		StartedAt:     startedAt,
		DurationMS:    elapsed.Milliseconds(),
		Source:        source,
		Metrics:       make(map[string]map[string]contracts.Score),
		Removed:       make(map[string][]string),
		InputOrigRows: input.Orig.Len(),
		InputPerfRows: input.Perf.Len(),
		CleanOrigRows: r.Pair.Orig.Len(),
		CleanPerfRows: r.Pair.Perf.Len(),
	}
	for _, d := range r.Summary {
		snap.Dimensions = append(snap.Dimensions, contracts.DimensionScore{
			Dimension: d.Dimension,
			Score:     contracts.Score(d.Score),
		})
	}
	for dim, metrics := range r.Metrics() {
		values := make(map[string]contracts.Score, len(metrics))
		for _, m := range metrics {
			values[m.Name] = contracts.Score(m.Value)
		}
		snap.Metrics[dim] = values
	}
	for dim, ids := range r.Removed {
		snap.Removed[dim] = ids
	}
	return snap
}

// logScore keeps NaN out of JSON log lines
func logScore(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
