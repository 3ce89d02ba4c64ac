// Package report writes the CSV reports and the console summary of a
// reconciliation run.
package report

import (
	"encoding/csv"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
)

// formulaPrefixes start cell content a spreadsheet would evaluate.
const formulaPrefixes = "=+-@\t\r"

// Sanitize escapes HTML and quotes cells a spreadsheet would evaluate as
// a formula.
func Sanitize(cell string) string {
	out := html.EscapeString(cell)
	if cell != "" && strings.ContainsRune(formulaPrefixes, rune(cell[0])) {
		out = "'" + out
	}
	return out
}

// Writer writes report files into one directory, tagging each file name
// with the run name.
type Writer struct {
	dir      string
	name     string
	sanitize bool
}

// NewWriter creates the output directory if needed.
func NewWriter(dir, name string, sanitize bool) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create output directory: %w", err)
	}
	if name == "" {
		name = "output"
	}
	return &Writer{dir: dir, name: name, sanitize: sanitize}, nil
}

// Dir is the output directory.
func (w *Writer) Dir() string { return w.dir }

// Name is the run name used in file names.
func (w *Writer) Name() string { return w.name }

// table is a header plus rows, written as one CSV file.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(row ...string) {
	t.rows = append(t.rows, row)
}

// write stores t as <dir>/<file> and returns the path.
func (w *Writer) write(file string, t *table) (string, error) {
	path := filepath.Join(w.dir, file)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(t.header); err != nil {
		f.Close()
		return "", fmt.Errorf("report: %s: %w", file, err)
	}
	for _, row := range t.rows {
		if w.sanitize {
			clean := make([]string, len(row))
			for i, cell := range row {
				clean[i] = Sanitize(cell)
			}
			row = clean
		}
		if err := cw.Write(row); err != nil {
			f.Close()
			return "", fmt.Errorf("report: %s: %w", file, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("report: %s: %w", file, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("report: %s: %w", file, err)
	}
	return path, nil
}
