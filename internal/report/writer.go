package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wonny/loanqa/pkg/logger"
)

// Writer persists report tables as comma-delimited files under one directory
// ⭐ SSOT: 리포트 파일 출력은 이 Writer에서만
type Writer struct {
	dir    string
	logger *logger.Logger
}

// NewWriter creates the output directory if needed
func NewWriter(dir string, log *logger.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Writer{dir: dir, logger: log}, nil
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// Write stores t as <dir>/<t.Name>.csv, replacing any previous file
func (w *Writer) Write(t Table) error {
	if t.Name == "" {
		return fmt.Errorf("report table has no name")
	}

	path := filepath.Join(w.dir, t.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeCSV(f, t); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	w.logger.WithFields(map[string]interface{}{
		"file": path,
		"rows": len(t.Rows),
	}).Debug("Report written")

	return nil
}

// writeCSV encodes t and closes out; a failed close is returned
func writeCSV(out io.WriteCloser, t Table) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(t.Columns); err != nil {
		out.Close()
		return fmt.Errorf("header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		out.Close()
		return fmt.Errorf("rows: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
