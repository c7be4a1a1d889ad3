package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wonny/loanqa/internal/dataset"
)

var (
	num  = dataset.Num
	text = dataset.Text
	null = dataset.Null
	na   = dataset.NA
)

func month(y, m int) dataset.Value {
	return dataset.Time(time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC))
}

func build(t *testing.T, name string, cols []string, rows ...[]dataset.Value) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRows(name, cols, rows...)
	require.NoError(t, err)
	return ds
}

func row(values ...dataset.Value) []dataset.Value {
	return values
}

// column builds a single-column dataset
func column(t *testing.T, name string, values ...dataset.Value) *dataset.Dataset {
	t.Helper()
	ds := dataset.New("perf", name)
	for _, v := range values {
		require.NoError(t, ds.AppendRow(v))
	}
	return ds
}

func numbers(values ...float64) []dataset.Value {
	out := make([]dataset.Value, len(values))
	for i, v := range values {
		out[i] = num(v)
	}
	return out
}

// repeat returns n copies of v
func repeat(v dataset.Value, n int) []dataset.Value {
	out := make([]dataset.Value, n)
	for i := range out {
		out[i] = v
	}
	return out
}
