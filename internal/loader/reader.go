package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/loanqa/internal/dataset"
)

// ErrColumnCount is returned for a record that cannot hold the analysed columns
var ErrColumnCount = errors.New("unexpected column count")

// Read parses a headerless pipe-delimited stream into a dataset holding
// layout.Keep. Records may omit trailing columns added in later releases
// as long as every kept column is present.
func Read(r io.Reader, layout Layout) (*dataset.Dataset, error) {
	positions, need, err := layout.positions()
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	ds := dataset.New(layout.Name, layout.Keep...)
	row := make([]dataset.Value, len(layout.Keep))
	coercers := make([]Coercer, len(layout.Keep))
	for i, col := range layout.Keep {
		coercers[i] = layout.Coerce[col]
		if coercers[i] == nil {
			coercers[i] = Text
		}
	}

	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", layout.Name, line, err)
		}
		if len(record) < need || len(record) > len(layout.Columns) {
			return nil, fmt.Errorf("read %s line %d: %w: got %d, want %d",
				layout.Name, line, ErrColumnCount, len(record), len(layout.Columns))
		}

		for i, pos := range positions {
			row[i] = coercers[i](record[pos])
		}
		if err := ds.AppendRow(row...); err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", layout.Name, line, err)
		}
	}

	return ds, nil
}

// positions maps each kept column to its field index and returns the
// minimum record width
func (l Layout) positions() ([]int, int, error) {
	index := make(map[string]int, len(l.Columns))
	for i, c := range l.Columns {
		index[c] = i
	}

	positions := make([]int, len(l.Keep))
	need := 0
	for i, c := range l.Keep {
		pos, ok := index[c]
		if !ok {
			return nil, 0, fmt.Errorf("layout %s: kept column %q not in layout", l.Name, c)
		}
		positions[i] = pos
		need = max(need, pos+1)
	}
	return positions, need, nil
}

// ReadFile reads one file with the given layout
func ReadFile(path string, layout Layout) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Read(f, layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ds, nil
}

// LoadPair reads the origination and performance files of dir in parallel
func LoadPair(dir, origFile, perfFile string) (dataset.Pair, error) {
	var pair dataset.Pair
	var g errgroup.Group

	g.Go(func() error {
		ds, err := ReadFile(filepath.Join(dir, origFile), OrigLayout)
		pair.Orig = ds
		return err
	})
	g.Go(func() error {
		ds, err := ReadFile(filepath.Join(dir, perfFile), PerfLayout)
		pair.Perf = ds
		return err
	})

	if err := g.Wait(); err != nil {
		return dataset.Pair{}, fmt.Errorf("load pair: %w", err)
	}
	return pair, nil
}
