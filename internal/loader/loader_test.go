package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/pkg/config"
	"github.com/wonny/loanqa/pkg/httputil"
	"github.com/wonny/loanqa/pkg/logger"
)

// record renders a pipe-delimited line with the given fields set
func record(layout Layout, fields map[string]string) string {
	out := make([]string, len(layout.Columns))
	for i, c := range layout.Columns {
		out[i] = fields[c]
	}
	return strings.Join(out, "|")
}

func origLine(id, ppm, interestOnly, upb string) string {
	return record(OrigLayout, map[string]string{
		"LoanSequenceNumber": id,
		"PPM_Flag":           ppm,
		"InterestOnlyFlag":   interestOnly,
		"UPB":                upb,
		"MaturityDate":       "204001",
		"PropertyState":      "CA",
		"PropertyType":       "SF",
		"CreditScore":        "750",
	})
}

func perfLine(id, period, zbCode, ltv, mod string) string {
	return record(PerfLayout, map[string]string{
		"LoanSequenceNumber":     id,
		"MonthlyReportingPeriod": period,
		"CurrentActualUPB":       "150000.00",
		"CurrentInterestRate":    "4.875",
		"ZeroBalanceCode":        zbCode,
		"EstimatedLTV":           ltv,
		"ModificationFlag":       mod,
		"LoanAge":                "3",
	})
}

func TestRead_Orig(t *testing.T) {
	input := strings.Join([]string{
		origLine("F10Q10000001", "N", "N", "200000"),
		origLine("F10Q10000002", "Y", "", "not-a-number"),
	}, "\n")

	ds, err := Read(strings.NewReader(input), OrigLayout)
	require.NoError(t, err)

	assert.Equal(t, OrigLayout.Keep, ds.Columns())
	require.Equal(t, 2, ds.Len())

	row := ds.Row(1)
	assert.Equal(t, "F10Q10000002", row[0].String())
	assert.Equal(t, dataset.Num(1), row[1])
	assert.Equal(t, dataset.KindTime, row[2].Kind())
	assert.True(t, row[3].IsMissing(), "blank interest-only flag")
	assert.True(t, row[4].IsMissing(), "unparseable UPB")

	upb, ok := ds.Row(0)[4].Float()
	require.True(t, ok)
	assert.Equal(t, 200000.0, upb)
}

func TestRead_Perf(t *testing.T) {
	input := strings.Join([]string{
		perfLine("F1", "201001", "", "80", ""),
		perfLine("F1", "201002", "01", "999", "Y"),
	}, "\n")

	ds, err := Read(strings.NewReader(input), PerfLayout)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	code := ds.Column("ZeroBalanceCode")
	assert.True(t, code[0].IsNotApplicable())
	assert.Equal(t, "01", code[1].String())

	mod := ds.Column("ModificationFlag")
	assert.True(t, mod[0].IsNotApplicable())
	assert.Equal(t, "Y", mod[1].String())

	ltv := ds.Column("EstimatedLTV")
	assert.Equal(t, dataset.Num(80), ltv[0])
	assert.True(t, ltv[1].IsMissing())

	period, ok := ds.Column("MonthlyReportingPeriod")[1].TimeValue()
	require.True(t, ok)
	assert.Equal(t, time.Date(2010, 2, 1, 0, 0, 0, 0, time.UTC), period)

	assert.True(t, ds.Column("ZeroBalanceEffectiveDate")[0].IsMissing())
}

func TestRead_ColumnCount(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few", "F1|201001|100"},
		{"too many", perfLine("F1", "201001", "", "80", "") + "|extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), PerfLayout)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrColumnCount)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestRead_OlderReleaseWithoutTrailingColumns(t *testing.T) {
	full := perfLine("F1", "201001", "", "80", "")
	fields := strings.Split(full, "|")
	// EstimatedLTV is the last kept field; drop everything after it
	short := strings.Join(fields[:26], "|")

	ds, err := Read(strings.NewReader(short), PerfLayout)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestCoercers(t *testing.T) {
	assert.True(t, Text("  ").IsMissing())
	assert.Equal(t, "CA", Text(" CA ").String())

	assert.True(t, Number("").IsMissing())
	assert.Equal(t, dataset.Num(4.25), Number("4.25"))

	assert.True(t, YearMonth("2010-01").IsMissing())
	assert.Equal(t, dataset.KindTime, YearMonth("201001").Kind())

	assert.Equal(t, dataset.Num(0), Flag("N"))
	assert.Equal(t, dataset.Num(9), Flag("9"))
	assert.True(t, Flag("").IsMissing())

	assert.True(t, Code("").IsNotApplicable())
	assert.True(t, LTV("999").IsMissing())
}

func writeFile(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestLoadPair(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orig.txt", origLine("F1", "N", "N", "100000"))
	writeFile(t, dir, "svcg.txt",
		perfLine("F1", "201001", "", "80", ""),
		perfLine("F1", "201002", "", "79", ""),
	)

	pair, err := LoadPair(dir, "orig.txt", "svcg.txt")
	require.NoError(t, err)

	assert.Equal(t, dataset.OrigName, pair.Orig.Name)
	assert.Equal(t, 1, pair.Orig.Len())
	assert.Equal(t, 2, pair.Perf.Len())
}

func TestLoadPair_MissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orig.txt", origLine("F1", "N", "N", "100000"))

	_, err := LoadPair(dir, "orig.txt", "absent.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func testClient() *httputil.Client {
	cfg := &config.Config{Env: "test", LogLevel: "error"}
	return httputil.New(cfg, logger.Nop()).WithRetry(1, 10*time.Millisecond)
}

func TestFetcher_Fetch(t *testing.T) {
	body := perfLine("F1", "201001", "", "80", "") + "\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/sample_svcg.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	defer server.Close()

	dir := t.TempDir()
	f := NewFetcher(testClient(), server.URL+"/data", logger.Nop())

	path, err := f.Fetch(context.Background(), "sample_svcg.txt", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sample_svcg.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = f.FetchAll(context.Background(), dir, "sample_svcg.txt", "absent.txt")
	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestFetcher_NoSource(t *testing.T) {
	f := NewFetcher(testClient(), "", logger.Nop())

	_, err := f.Fetch(context.Background(), "sample_orig.txt", t.TempDir())
	assert.ErrorIs(t, err, ErrNoSource)
}
