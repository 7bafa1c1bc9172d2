package dataset

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

// XLSXReader reads the dataset from an Excel workbook, using the named sheet
// or the first one.
type XLSXReader struct {
	path  string
	sheet string
}

// NewXLSXReader creates a reader for the workbook at path.
func NewXLSXReader(path, sheet string) *XLSXReader {
	return &XLSXReader{path: path, sheet: sheet}
}

// ReadAll implements waste.DatasetReader.
func (r *XLSXReader) ReadAll(ctx context.Context) ([]waste.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found in %s (have %v)", sheet, r.path, f.GetSheetList())
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	records, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("parse sheet %q: %w", sheet, err)
	}
	return records, nil
}

// Close implements Reader.
func (r *XLSXReader) Close() error { return nil }
