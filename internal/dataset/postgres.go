package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

// PostgresReader reads the dataset from a table with the same columns as the
// CSV export. It only ever issues SELECTs.
type PostgresReader struct {
	db    *sql.DB
	query string
}

// OpenPostgres opens and pings a database handle for dsn.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresReader creates a reader over table. The table name may be
// schema-qualified and is quoted before use.
func NewPostgresReader(db *sql.DB, table string) *PostgresReader {
	return &PostgresReader{
		db: db,
		query: "SELECT product_id, date, temperature, humidity, rainfall_mm, shelf_life_days, units_sold FROM " +
			quoteTable(table) + " ORDER BY date, product_id",
	}
}

// ReadAll implements waste.DatasetReader.
func (r *PostgresReader) ReadAll(ctx context.Context) ([]waste.ProductRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close()

	var records []waste.ProductRecord
	for rows.Next() {
		var rec waste.ProductRecord
		var units sql.NullInt64
		if err := rows.Scan(
			&rec.ProductID,
			&rec.Date,
			&rec.Temperature,
			&rec.Humidity,
			&rec.RainfallMM,
			&rec.ShelfLifeDays,
			&units,
		); err != nil {
			return nil, fmt.Errorf("scan dataset row: %w", err)
		}
		if rec.ShelfLifeDays < 0 {
			return nil, fmt.Errorf("product %s on %s: negative shelf_life_days %d",
				rec.ProductID, rec.Date.Format(waste.DateLayout), rec.ShelfLifeDays)
		}
		rec.UnitsSold = int(units.Int64)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset: %w", err)
	}
	return records, nil
}

// Close closes the database handle.
func (r *PostgresReader) Close() error {
	return r.db.Close()
}

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
