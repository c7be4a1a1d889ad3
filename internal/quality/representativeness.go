package quality

import (
	"math"
	"sort"
	"strconv"

	"github.com/spf13/cast"

	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/internal/report"
)

// VariableClass selects the representativeness rule of a column
type VariableClass string

const (
	ClassBinary      VariableClass = "binary"
	ClassCategorical VariableClass = "categorical"
	ClassNumeric     VariableClass = "numeric"
)

// Representativeness thresholds, in percent
const (
	dominantShareLimit = 95.0 // categorical: top share must stay below
	minorityShareFloor = 5.0  // binary: minority share must reach
	lowestBinFloor     = 5.0  // numeric: smallest bin must reach
	maxBins            = 10
)

// VariableClasses assigns columns of one dataset to variable classes
type VariableClasses struct {
	Categorical []string
	Binary      []string
	Numeric     []string
}

// VariableReport is one evaluated column. Shares are percentages rounded to
// two decimals; NaN marks a column with nothing to evaluate.
type VariableReport struct {
	Column string
	Class  VariableClass

	// categorical
	Levels      int
	TopCategory string
	TopShare    float64

	// binary
	Share1        float64
	Share0        float64
	MinorityShare float64

	// numeric
	Bins      int
	LowestBin float64

	WellRepresented bool
}

// RepresentativenessReport is the evaluation of one dataset
type RepresentativenessReport struct {
	Dataset   string
	Variables []VariableReport
	Skipped   []string
}

// CheckRepresentativeness evaluates the columns of one dataset.
// Variables are ordered by class, then column name.
func CheckRepresentativeness(ds *dataset.Dataset, classes VariableClasses) RepresentativenessReport {
	rep := RepresentativenessReport{}
	if ds != nil {
		rep.Dataset = ds.Name
	}

	eval := func(cols []string, fn func(string, []dataset.Value) VariableReport) {
		for _, c := range cols {
			if !ds.Has(c) {
				rep.Skipped = append(rep.Skipped, c)
				continue
			}
			rep.Variables = append(rep.Variables, fn(c, ds.Column(c)))
		}
	}
	eval(classes.Categorical, categoricalReport)
	eval(classes.Binary, binaryReport)
	eval(classes.Numeric, numericReport)

	sort.SliceStable(rep.Variables, func(i, j int) bool {
		a, b := rep.Variables[i], rep.Variables[j]
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		return a.Column < b.Column
	})
	return rep
}

// categoricalReport: sentinel and missing values are not categories
func categoricalReport(col string, values []dataset.Value) VariableReport {
	vr := VariableReport{Column: col, Class: ClassCategorical, TopShare: math.NaN()}

	counts := make(map[string]int)
	n := 0
	for _, v := range values {
		if !v.IsObserved() {
			continue
		}
		counts[v.String()]++
		n++
	}
	vr.Levels = len(counts)
	if n == 0 {
		return vr
	}

	top, topCount := "", -1
	for cat, c := range counts {
		if c > topCount || (c == topCount && cat < top) {
			top, topCount = cat, c
		}
	}
	vr.TopCategory = top
	vr.TopShare = round(100*float64(topCount)/float64(n), 2)
	vr.WellRepresented = vr.TopShare < dominantShareLimit
	return vr
}

// binaryReport maps Y/N to 1/0; other values count toward neither class
func binaryReport(col string, values []dataset.Value) VariableReport {
	nan := math.NaN()
	vr := VariableReport{Column: col, Class: ClassBinary, Share1: nan, Share0: nan, MinorityShare: nan}

	ones, zeros, n := 0, 0, 0
	for _, v := range values {
		f, ok := binaryValue(v)
		if !ok {
			continue
		}
		n++
		switch f {
		case 1:
			ones++
		case 0:
			zeros++
		}
	}
	if n == 0 {
		return vr
	}

	p1 := float64(ones) / float64(n)
	p0 := float64(zeros) / float64(n)
	vr.Share1 = round(p1*100, 2)
	vr.Share0 = round(p0*100, 2)
	vr.MinorityShare = round(math.Min(p0, p1)*100, 2)
	vr.WellRepresented = vr.MinorityShare >= minorityShareFloor
	return vr
}

func binaryValue(v dataset.Value) (float64, bool) {
	switch v.Kind() {
	case dataset.KindNumber:
		return v.Float()
	case dataset.KindText:
		switch v.String() {
		case "Y", "y":
			return 1, true
		case "N", "n":
			return 0, true
		}
		f, err := cast.ToFloat64E(v.String())
		return f, err == nil
	default:
		return 0, false
	}
}

// numericReport bins values into up to ten equal-frequency bins.
// Duplicate quantile edges collapse; fewer than two distinct edges leave
// the column unevaluable (NaN, poorly represented).
func numericReport(col string, values []dataset.Value) VariableReport {
	vr := VariableReport{Column: col, Class: ClassNumeric, LowestBin: math.NaN()}

	nums := numericValues(values)
	if len(nums) == 0 {
		return vr
	}
	sorted := sortedCopy(nums)

	unique := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			unique++
		}
	}
	vr.Bins = min(maxBins, unique)

	q := min(maxBins, max(2, unique))
	edges := make([]float64, 0, q+1)
	for i := 0; i <= q; i++ {
		e := quantile(sorted, float64(i)/float64(q))
		if len(edges) == 0 || e != edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	if len(edges) < 2 {
		return vr
	}

	counts := make([]int, len(edges)-1)
	bin := 0
	for _, v := range sorted {
		for bin < len(counts)-1 && v > edges[bin+1] {
			bin++
		}
		counts[bin]++
	}

	lowest := math.Inf(1)
	for _, c := range counts {
		lowest = math.Min(lowest, 100*float64(c)/float64(len(sorted)))
	}
	vr.LowestBin = round(lowest, 2)
	vr.WellRepresented = vr.LowestBin >= lowestBinFloor
	return vr
}

// OverallRepresentativeness pools every evaluated variable of every report:
// 1 - poorly represented / total. NaN when nothing was evaluated.
func OverallRepresentativeness(reports ...RepresentativenessReport) float64 {
	total, poor := 0, 0
	for _, r := range reports {
		for _, v := range r.Variables {
			total++
			if !v.WellRepresented {
				poor++
			}
		}
	}
	return ratio(float64(poor), float64(total))
}

// Table renders the variables of one dataset
func (r RepresentativenessReport) Table(name string) report.Table {
	t := report.Table{
		Name: name,
		Columns: []string{
			"column", "type", "n_levels", "top_category", "top_share_%",
			"share_1_%", "share_0_%", "minority_share_%", "bins", "lowest_bin_%", "well_represented",
		},
	}
	for _, v := range r.Variables {
		row := make([]string, len(t.Columns))
		row[0] = v.Column
		row[1] = string(v.Class)
		switch v.Class {
		case ClassCategorical:
			row[2] = strconv.Itoa(v.Levels)
			row[3] = v.TopCategory
			row[4] = report.FormatFloat(v.TopShare)
		case ClassBinary:
			row[5] = report.FormatFloat(v.Share1)
			row[6] = report.FormatFloat(v.Share0)
			row[7] = report.FormatFloat(v.MinorityShare)
		case ClassNumeric:
			row[8] = strconv.Itoa(v.Bins)
			row[9] = report.FormatFloat(v.LowestBin)
		}
		row[10] = report.FormatBool(v.WellRepresented)
		t.Rows = append(t.Rows, row)
	}
	return t
}
