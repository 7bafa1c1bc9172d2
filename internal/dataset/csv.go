package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

// CSVReader reads the daily aggregated dataset from a CSV file. The file is
// read on every call so an updated export is picked up without a restart.
type CSVReader struct {
	path string
}

// NewCSVReader creates a reader for the file at path.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

// ReadAll implements waste.DatasetReader.
func (r *CSVReader) ReadAll(ctx context.Context) ([]waste.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", r.path, err)
	}

	records, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", r.path, err)
	}
	return records, nil
}

// Close implements Reader.
func (r *CSVReader) Close() error { return nil }
