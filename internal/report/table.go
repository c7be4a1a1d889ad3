package report

import (
	"math"
	"strconv"
)

// Metric is one row of a flat metric-name → value report
type Metric struct {
	Name  string
	Value float64
}

// Metrics is an ordered metric table
type Metrics []Metric

// Add appends a metric
func (m *Metrics) Add(name string, value float64) {
	*m = append(*m, Metric{Name: name, Value: value})
}

// AddInt appends an integer metric
func (m *Metrics) AddInt(name string, value int) {
	m.Add(name, float64(value))
}

// Get returns the first metric with the given name
func (m Metrics) Get(name string) (float64, bool) {
	for _, metric := range m {
		if metric.Name == name {
			return metric.Value, true
		}
	}
	return 0, false
}

// Table renders the metrics with a Metric,Value header
func (m Metrics) Table(name string) Table {
	t := Table{Name: name, Columns: []string{"Metric", "Value"}}
	for _, metric := range m {
		t.Rows = append(t.Rows, []string{metric.Name, FormatFloat(metric.Value)})
	}
	return t
}

// Table is a named tabular artifact
type Table struct {
	Name    string // file stem, e.g. "completeness_report"
	Columns []string
	Rows    [][]string
}

// FormatFloat renders a value for a report cell. NaN becomes an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatBool renders a flag as True / False
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
