package quality

import (
	"math"
	"runtime"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/internal/report"
)

// Outlier detection defaults and MAD scale constants
const (
	madConsistency     = 0.6745 // Φ⁻¹(0.75)
	defaultIQRFence    = 1.5
	defaultZThreshold  = 3.0
	defaultMZThreshold = 3.5
)

// Dispersion names the estimator behind a modified z-score
type Dispersion string

const (
	DispersionMedian Dispersion = "median_abs_dev"
	DispersionNone   Dispersion = "none" // MAD is zero, every modified z-score is 0
)

// OutlierOptions configures the outlier scorer
type OutlierOptions struct {
	Columns            []string
	IQRFence           float64
	ZThreshold         float64
	ModifiedZThreshold float64
}

func (o OutlierOptions) withDefaults() OutlierOptions {
	if o.IQRFence <= 0 {
		o.IQRFence = defaultIQRFence
	}
	if o.ZThreshold <= 0 {
		o.ZThreshold = defaultZThreshold
	}
	if o.ModifiedZThreshold <= 0 {
		o.ModifiedZThreshold = defaultMZThreshold
	}
	return o
}

// OutlierRow is the per-column diagnostic.
// Rates are percentages of non-null values; NaN when the column has none.
type OutlierRow struct {
	Column     string
	N          int
	Q1         float64
	Q3         float64
	IQR        float64
	Lower      float64
	Upper      float64
	IQRPct     float64
	ZPct       float64
	MZPct      float64
	Median     float64
	MAD        float64
	Dispersion Dispersion
}

// OutlierResult holds the composite score and per-column rows in column order
type OutlierResult struct {
	Score   float64
	Rows    []OutlierRow
	Skipped []string
}

// ScoreOutliers computes IQR, z-score and modified z-score outlier rates
// per column. Only the IQR rate feeds the composite score.
// Columns are processed in parallel; output order follows opts.Columns.
func ScoreOutliers(ds *dataset.Dataset, opts OutlierOptions) OutlierResult {
	opts = opts.withDefaults()
	res := OutlierResult{Score: math.NaN()}

	present := make([]string, 0, len(opts.Columns))
	for _, c := range opts.Columns {
		if ds.Has(c) {
			present = append(present, c)
		} else {
			res.Skipped = append(res.Skipped, c)
		}
	}

	rows := make([]OutlierRow, len(present))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, col := range present {
		i, col := i, col
		g.Go(func() error {
			rows[i] = outlierRow(col, numericValues(ds.Column(col)), opts)
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	res.Rows = rows

	sum, valid := 0.0, 0
	for _, r := range rows {
		if !math.IsNaN(r.IQRPct) {
			sum += r.IQRPct
			valid++
		}
	}
	if valid > 0 {
		res.Score = 1 - sum/100
	}
	return res
}

// numericValues keeps numbers and numeric text; everything else is skipped
func numericValues(col []dataset.Value) []float64 {
	out := make([]float64, 0, len(col))
	for _, v := range col {
		switch v.Kind() {
		case dataset.KindNumber:
			f, _ := v.Float()
			out = append(out, f)
		case dataset.KindText:
			if f, err := cast.ToFloat64E(v.String()); err == nil && !math.IsNaN(f) {
				out = append(out, f)
			}
		}
	}
	return out
}

func outlierRow(col string, values []float64, opts OutlierOptions) OutlierRow {
	nan := math.NaN()
	row := OutlierRow{
		Column: col, N: len(values),
		Q1: nan, Q3: nan, IQR: nan, Lower: nan, Upper: nan,
		IQRPct: nan, ZPct: nan, MZPct: nan, Median: nan, MAD: nan,
		Dispersion: DispersionNone,
	}
	n := float64(len(values))
	if len(values) == 0 {
		return row
	}

	sorted := sortedCopy(values)

	// IQR
	row.Q1 = quantile(sorted, 0.25)
	row.Q3 = quantile(sorted, 0.75)
	row.IQR = row.Q3 - row.Q1
	row.Lower = row.Q1 - opts.IQRFence*row.IQR
	row.Upper = row.Q3 + opts.IQRFence*row.IQR
	iqrOut := 0
	for _, v := range values {
		if v < row.Lower || v > row.Upper {
			iqrOut++
		}
	}
	row.IQRPct = 100 * float64(iqrOut) / n

	// Classical z
	row.ZPct = 0
	if sd := stdDev(values); sd > 0 {
		mu := mean(values)
		zOut := 0
		for _, v := range values {
			if math.Abs((v-mu)/sd) > opts.ZThreshold {
				zOut++
			}
		}
		row.ZPct = 100 * float64(zOut) / n
	}

	// Modified z
	row.Median = median(sorted)
	row.MAD, row.Dispersion = robustScale(values, row.Median)
	row.MZPct = 0
	if row.MAD > 0 {
		mzOut := 0
		for _, v := range values {
			if math.Abs(madConsistency*(v-row.Median)/row.MAD) > opts.ModifiedZThreshold {
				mzOut++
			}
		}
		row.MZPct = 100 * float64(mzOut) / n
	}
	return row
}

// robustScale returns the median absolute deviation. It is zero when more
// than half of the values sit on the median; no modified z-score is then
// computed and the column reports no MZ outliers.
func robustScale(values []float64, med float64) (float64, Dispersion) {
	mad := medianAbsDev(values, med)
	if mad > 0 {
		return mad, DispersionMedian
	}
	return 0, DispersionNone
}

// Table renders the per-column outlier report
func (r OutlierResult) Table(name string) report.Table {
	t := report.Table{
		Name: name,
		Columns: []string{
			"column", "Q1", "Q3", "IQR", "IQR_lower", "IQR_upper",
			"IQR_outliers_%", "Z_outliers_%", "MZ_outliers_%", "median", "MAD", "MAD_method",
		},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []string{
			row.Column,
			report.FormatFloat(round(row.Q1, 3)),
			report.FormatFloat(round(row.Q3, 3)),
			report.FormatFloat(round(row.IQR, 3)),
			report.FormatFloat(round(row.Lower, 3)),
			report.FormatFloat(round(row.Upper, 3)),
			report.FormatFloat(round(row.IQRPct, 3)),
			report.FormatFloat(round(row.ZPct, 3)),
			report.FormatFloat(round(row.MZPct, 3)),
			report.FormatFloat(round(row.Median, 3)),
			report.FormatFloat(round(row.MAD, 3)),
			string(row.Dispersion),
		})
	}
	return t
}

// Metrics returns the composite outlier report
func (r OutlierResult) Metrics() report.Metrics {
	var m report.Metrics
	m.AddInt("Columns evaluated", len(r.Rows))
	m.AddInt("Columns skipped", len(r.Skipped))
	m.Add("Outlier_Score", round(r.Score, 3))
	return m
}
