package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loanqa/pkg/logger"
)

func TestMetrics(t *testing.T) {
	var m Metrics
	m.AddInt("Total records", 17)
	m.Add("Completeness_Score", 0.85)
	m.Add("Consistency_Score", math.NaN())

	v, ok := m.Get("Total records")
	require.True(t, ok)
	assert.Equal(t, 17.0, v)

	_, ok = m.Get("absent")
	assert.False(t, ok)

	table := m.Table("completeness_report")
	assert.Equal(t, []string{"Metric", "Value"}, table.Columns)
	assert.Equal(t, [][]string{
		{"Total records", "17"},
		{"Completeness_Score", "0.85"},
		{"Consistency_Score", ""},
	}, table.Rows)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.625, "0.625"},
		{1, "1"},
		{-3.5, "-3.5"},
		{math.NaN(), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in))
	}

	assert.Equal(t, "True", FormatBool(true))
	assert.Equal(t, "False", FormatBool(false))
}

func TestWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "Quality_Results")
	w, err := NewWriter(dir, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, dir, w.Dir())

	table := Table{
		Name:    "removed_loans",
		Columns: []string{"Data Quality Dimension", "LoanSequenceNumber"},
		Rows: [][]string{
			{"Completeness", "F10Q10000002"},
			{"Consistency", "F10Q10000003"},
		},
	}
	require.NoError(t, w.Write(table))

	f, err := os.Open(filepath.Join(dir, "removed_loans.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, append([][]string{table.Columns}, table.Rows...), records)

	// rewriting replaces the file
	table.Rows = table.Rows[:1]
	require.NoError(t, w.Write(table))
	data, err := os.ReadFile(filepath.Join(dir, "removed_loans.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Data Quality Dimension,LoanSequenceNumber\nCompleteness,F10Q10000002\n", string(data))
}

func TestWriter_NoName(t *testing.T) {
	w, err := NewWriter(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	assert.Error(t, w.Write(Table{Columns: []string{"Metric", "Value"}}))
}

type closeErrWriter struct {
	bytes.Buffer
	closeErr error
	closed   int
}

func (w *closeErrWriter) Close() error {
	w.closed++
	return w.closeErr
}

func TestWriteCSV_Close(t *testing.T) {
	table := Table{Name: "uniqueness_report", Columns: []string{"Metric", "Value"}, Rows: [][]string{{"Duplicates", "1"}}}

	tests := []struct {
		name     string
		closeErr error
		wantErr  string
	}{
		{"ok", nil, ""},
		{"close fails", errors.New("short write"), "close: short write"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &closeErrWriter{closeErr: tt.closeErr}

			err := writeCSV(out, table)

			assert.Equal(t, 1, out.closed)
			assert.Equal(t, "Metric,Value\nDuplicates,1\n", out.String())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.closeErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
