package dataset

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var datasetColumns = []string{"product_id", "date", "temperature", "humidity", "rainfall_mm", "shelf_life_days", "units_sold"}

const datasetQuery = `SELECT product_id, date, temperature, humidity, rainfall_mm, shelf_life_days, units_sold FROM "analytics"."daily_aggregated" ORDER BY date, product_id`

func TestPostgresReaderReadAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(datasetQuery)).WillReturnRows(
		sqlmock.NewRows(datasetColumns).
			AddRow("P001", day, 30.0, 60.0, 5.0, 5, 120).
			AddRow("P002", day, 35.0, 70.0, 1.5, 2, nil),
	)

	records, err := NewPostgresReader(db, "analytics.daily_aggregated").ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "P001", records[0].ProductID)
	assert.True(t, records[0].Date.Equal(day))
	assert.Equal(t, 120, records[0].UnitsSold)
	assert.Equal(t, 2, records[1].ShelfLifeDays)
	assert.Equal(t, 0, records[1].UnitsSold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReaderRejectsNegativeShelfLife(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(datasetQuery)).WillReturnRows(
		sqlmock.NewRows(datasetColumns).AddRow("P001", time.Now(), 30.0, 60.0, 5.0, -2, 1),
	)

	_, err = NewPostgresReader(db, "analytics.daily_aggregated").ReadAll(context.Background())
	assert.ErrorContains(t, err, "negative shelf_life_days -2")
}

func TestPostgresReaderQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(datasetQuery)).WillReturnError(errors.New("relation does not exist"))

	_, err = NewPostgresReader(db, "analytics.daily_aggregated").ReadAll(context.Background())
	assert.ErrorContains(t, err, "query dataset: relation does not exist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"daily_aggregated"`, quoteTable("daily_aggregated"))
	assert.Equal(t, `"public"."daily"`, quoteTable("public.daily"))
	assert.Equal(t, `"x""; DROP TABLE y; --"`, quoteTable(`x"; DROP TABLE y; --`))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	r, err := Open(ctx, Config{Format: "CSV", Path: "data.csv"})
	require.NoError(t, err)
	assert.IsType(t, &CSVReader{}, r)

	r, err = Open(ctx, Config{Format: FormatXLSX, Path: "data.xlsx", Sheet: "daily"})
	require.NoError(t, err)
	assert.IsType(t, &XLSXReader{}, r)

	_, err = Open(ctx, Config{Format: FormatCSV})
	assert.Error(t, err)
	_, err = Open(ctx, Config{Format: FormatPostgres})
	assert.ErrorContains(t, err, "dsn is required")
	_, err = Open(ctx, Config{Format: "parquet", Path: "x"})
	assert.ErrorContains(t, err, `unknown dataset format "parquet"`)
}
