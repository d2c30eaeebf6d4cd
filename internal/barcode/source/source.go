// Package source reads candidate barcodes from tabular files.
//
// A file is a set of named sections (xlsx sheets; a CSV file has a single
// section) whose first row is a header. Column returns the raw values under
// one header cell, one Cell per data row, blanks and missing cells included.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
)

// Cell is a raw value read from a source. Null marks a missing cell.
type Cell struct {
	Value string
	Null  bool
}

// Source yields the values of a named column in a named section.
type Source interface {
	// Column returns the cells under the header named column in section.
	// Returns ErrSchemaMismatch if the section or the column does not exist.
	Column(section, column string) ([]Cell, error)

	// Close releases the underlying file.
	Close() error
}

// Open opens the file at path with a reader chosen by its extension.
// Returns ErrSourceNotFound if the file does not exist.
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: file %q does not exist", berrors.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", berrors.ErrSourceNotFound, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %q is a directory", berrors.ErrSourceNotFound, path)
	}

	var src Source
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		src, err = openXLSX(path)
	case ".csv":
		src, err = openCSV(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q for %q", berrors.ErrSchemaMismatch, ext, path)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// SingleSection reports whether files like path hold exactly one section, which
// Column accepts under an empty name.
func SingleSection(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// columnIndex finds column in header, comparing trimmed cells.
func columnIndex(header []string, column string) int {
	want := strings.TrimSpace(column)
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == want {
			return i
		}
	}
	return -1
}

// cellsAt extracts the cell at idx from every data row.
func cellsAt(rows [][]string, idx int) []Cell {
	cells := make([]Cell, 0, len(rows))
	for _, row := range rows {
		if idx >= len(row) {
			cells = append(cells, Cell{Null: true})
			continue
		}
		cells = append(cells, Cell{Value: row[idx]})
	}
	return cells
}

func missingColumn(path, section, column string) error {
	return fmt.Errorf("%w: section %q of %q has no %q column", berrors.ErrSchemaMismatch, section, path, column)
}
