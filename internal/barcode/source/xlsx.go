package source

import (
	"fmt"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
	"github.com/xuri/excelize/v2"
)

// xlsxSource reads sheets of an Excel workbook.
type xlsxSource struct {
	path string
	file *excelize.File
}

func openXLSX(path string) (*xlsxSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open workbook %q: %w", berrors.ErrSchemaMismatch, path, err)
	}
	return &xlsxSource{path: path, file: f}, nil
}

// Column reads raw cell values so long numeric barcodes are not reformatted.
func (s *xlsxSource) Column(section, column string) ([]Cell, error) {
	idx, err := s.file.GetSheetIndex(section)
	if err != nil || idx == -1 {
		return nil, fmt.Errorf("%w: workbook %q has no sheet %q (sheets: %v)",
			berrors.ErrSchemaMismatch, s.path, section, s.file.GetSheetList())
	}

	rows, err := s.file.GetRows(section, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q of %q: %w", berrors.ErrSchemaMismatch, section, s.path, err)
	}
	if len(rows) == 0 {
		return nil, missingColumn(s.path, section, column)
	}

	col := columnIndex(rows[0], column)
	if col == -1 {
		return nil, missingColumn(s.path, section, column)
	}
	return cellsAt(rows[1:], col), nil
}

func (s *xlsxSource) Close() error {
	return s.file.Close()
}
