package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrRowWidth is returned when a row does not match the column count
var ErrRowWidth = errors.New("row width does not match column count")

// Dataset is an ordered, columnar record collection.
// ⭐ SSOT: 스코어러는 Dataset을 변경하지 않음 (삭제는 새 Dataset 반환)
//
// A nil *Dataset behaves as an empty dataset with no columns.
type Dataset struct {
	Name    string
	columns []string
	index   map[string]int
	data    [][]Value
	rows    int
}

// New creates an empty dataset with the given column layout
func New(name string, columns ...string) *Dataset {
	d := &Dataset{
		Name:    name,
		columns: make([]string, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if _, dup := d.index[c]; dup {
			continue
		}
		d.index[c] = len(d.columns)
		d.columns = append(d.columns, c)
		d.data = append(d.data, nil)
	}
	return d
}

// FromRows builds a dataset from row-major values
func FromRows(name string, columns []string, rows ...[]Value) (*Dataset, error) {
	d := New(name, columns...)
	for i, row := range rows {
		if err := d.AppendRow(row...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return d, nil
}

// AppendRow adds one row in column order. Only loaders call this.
func (d *Dataset) AppendRow(values ...Value) error {
	if len(values) != len(d.columns) {
		return fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(values), len(d.columns))
	}
	for i, v := range values {
		d.data[i] = append(d.data[i], v)
	}
	d.rows++
	return nil
}

// Len returns the row count
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Columns returns the column names in layout order
func (d *Dataset) Columns() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Has reports whether the column exists
func (d *Dataset) Has(column string) bool {
	if d == nil {
		return false
	}
	_, ok := d.index[column]
	return ok
}

// Column returns the values of a column, or nil when absent.
// The slice is shared and must not be modified.
func (d *Dataset) Column(column string) []Value {
	if d == nil {
		return nil
	}
	i, ok := d.index[column]
	if !ok {
		return nil
	}
	return d.data[i]
}

// Row returns a copy of row i in column order
func (d *Dataset) Row(i int) []Value {
	out := make([]Value, len(d.columns))
	for c := range d.columns {
		out[c] = d.data[c][i]
	}
	return out
}

// RowKey builds a hashable key over the given columns of row i
func (d *Dataset) RowKey(i int, columns []string) string {
	var b strings.Builder
	for n, c := range columns {
		if n > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(d.data[d.index[c]][i].Key())
	}
	return b.String()
}

// Filter returns a new dataset holding the rows for which keep is true
func (d *Dataset) Filter(keep func(i int) bool) *Dataset {
	if d == nil {
		return nil
	}
	out := New(d.Name, d.columns...)
	for i := 0; i < d.rows; i++ {
		if !keep(i) {
			continue
		}
		for c := range d.columns {
			out.data[c] = append(out.data[c], d.data[c][i])
		}
		out.rows++
	}
	return out
}

// DropLoans returns a dataset without the rows whose id is in ids.
// The receiver is returned unchanged when there is nothing to drop.
func (d *Dataset) DropLoans(idColumn string, ids IDSet) *Dataset {
	if d == nil || len(ids) == 0 || !d.Has(idColumn) {
		return d
	}
	col := d.Column(idColumn)
	return d.Filter(func(i int) bool {
		return !ids.Has(col[i].String()) || col[i].IsMissing()
	})
}

// LoanIDs returns the distinct non-missing identifiers in first-seen order
func (d *Dataset) LoanIDs(idColumn string) []string {
	col := d.Column(idColumn)
	seen := make(IDSet, len(col))
	out := make([]string, 0)
	for _, v := range col {
		if v.IsMissing() {
			continue
		}
		id := v.String()
		if seen.Has(id) {
			continue
		}
		seen.Add(id)
		out = append(out, id)
	}
	return out
}

// IDSet is a set of loan identifiers
type IDSet map[string]struct{}

// NewIDSet creates a set from ids
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id
func (s IDSet) Add(id string) { s[id] = struct{}{} }

// Has reports membership
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union adds every id of o to s
func (s IDSet) Union(o IDSet) {
	for id := range o {
		s.Add(id)
	}
}

// Sorted returns the ids in ascending order
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Dataset names of the two sides of a Pair
const (
	OrigName = "orig"
	PerfName = "perf"
)

// Pair links the origination dataset (one row per loan) with the
// performance dataset (one row per loan-month)
type Pair struct {
	Orig *Dataset
	Perf *Dataset
}

// DropLoans removes the loans from both sides
func (p Pair) DropLoans(idColumn string, ids IDSet) Pair {
	return Pair{
		Orig: p.Orig.DropLoans(idColumn, ids),
		Perf: p.Perf.DropLoans(idColumn, ids),
	}
}

// ByName keys the two datasets by OrigName / PerfName
func (p Pair) ByName() map[string]*Dataset {
	return map[string]*Dataset{
		OrigName: p.Orig,
		PerfName: p.Perf,
	}
}
