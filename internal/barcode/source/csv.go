package source

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
)

// csvSource is a CSV file. Its only section is unnamed or named after the file.
type csvSource struct {
	path string
	rows [][]string
}

func openCSV(path string) (*csvSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", berrors.ErrSourceNotFound, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %w", berrors.ErrSchemaMismatch, path, err)
	}
	return &csvSource{path: path, rows: rows}, nil
}

func (s *csvSource) Column(section, column string) ([]Cell, error) {
	if section != "" && section != s.sectionName() {
		return nil, fmt.Errorf("%w: CSV file %q has a single section %q, not %q",
			berrors.ErrSchemaMismatch, s.path, s.sectionName(), section)
	}
	if len(s.rows) == 0 {
		return nil, missingColumn(s.path, s.sectionName(), column)
	}
	col := columnIndex(s.rows[0], column)
	if col == -1 {
		return nil, missingColumn(s.path, s.sectionName(), column)
	}
	return cellsAt(s.rows[1:], col), nil
}

func (s *csvSource) Close() error {
	return nil
}

func (s *csvSource) sectionName() string {
	base := filepath.Base(s.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
