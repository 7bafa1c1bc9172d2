// Package dataset provides the read-only sources of daily product records.
package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

// Supported dataset formats.
const (
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatPostgres = "postgres"

	DefaultTable = "daily_aggregated"
)

// Config selects and locates the dataset.
type Config struct {
	Format string
	Path   string
	Sheet  string
	DSN    string
	Table  string
}

// Reader is a DatasetReader that may hold resources.
type Reader interface {
	waste.DatasetReader
	Close() error
}

// Open returns the reader for cfg.Format. File formats are not opened until
// the first read, so a missing file surfaces per request rather than at startup.
func Open(ctx context.Context, cfg Config) (Reader, error) {
	switch strings.ToLower(cfg.Format) {
	case FormatCSV, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("dataset path is required for csv")
		}
		return NewCSVReader(cfg.Path), nil
	case FormatXLSX:
		if cfg.Path == "" {
			return nil, fmt.Errorf("dataset path is required for xlsx")
		}
		return NewXLSXReader(cfg.Path, cfg.Sheet), nil
	case FormatPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		db, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		table := cfg.Table
		if table == "" {
			table = DefaultTable
		}
		return NewPostgresReader(db, table), nil
	default:
		return nil, fmt.Errorf("unknown dataset format %q", cfg.Format)
	}
}
