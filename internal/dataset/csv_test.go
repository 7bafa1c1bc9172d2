package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCSVReaderReadAll(t *testing.T) {
	path := writeFile(t, "daily_aggregated.csv", "\ufeffdate,product_id,Temperature, humidity ,rainfall_mm,shelf_life_days,units_sold\n"+
		"01/03/2024,P001,30.5,60,5.2,5,120\n"+
		"02/03/2024,P001,31,61,0,4.0,118\n"+
		"\n"+
		"2024-03-01,P002,35,70,1.5,2,\n")

	records, err := NewCSVReader(path).ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "P001", first.ProductID)
	assert.Equal(t, "2024-03-01", first.Date.Format("2006-01-02"))
	assert.Equal(t, 30.5, first.Temperature)
	assert.Equal(t, 60.0, first.Humidity)
	assert.Equal(t, 5.2, first.RainfallMM)
	assert.Equal(t, 5, first.ShelfLifeDays)
	assert.Equal(t, 120, first.UnitsSold)

	assert.Equal(t, "2024-03-02", records[1].Date.Format("2006-01-02"))
	assert.Equal(t, 4, records[1].ShelfLifeDays)

	assert.Equal(t, "P002", records[2].ProductID)
	assert.Equal(t, 0, records[2].UnitsSold)
}

func TestCSVReaderRejectsBadData(t *testing.T) {
	header := "product_id,date,temperature,humidity,rainfall_mm,shelf_life_days,units_sold\n"
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "negative shelf life", body: header + "P001,01/03/2024,30,60,5,-1,10\n", want: "line 2: negative shelf_life_days"},
		{name: "bad temperature", body: header + "P001,01/03/2024,hot,60,5,1,10\n", want: "invalid temperature"},
		{name: "bad date", body: header + "P001,March 1st,30,60,5,1,10\n", want: "invalid date"},
		{name: "fractional shelf life", body: header + "P001,01/03/2024,30,60,5,1.5,10\n", want: "invalid shelf_life_days"},
		{name: "empty product", body: header + ",01/03/2024,30,60,5,1,10\n", want: "empty product_id"},
		{name: "missing columns", body: "product_id,date,temperature\nP001,01/03/2024,30\n", want: "missing required columns: humidity, rainfall_mm, shelf_life_days"},
		{name: "empty file", body: "", want: "dataset is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "data.csv", tt.body)
			_, err := NewCSVReader(path).ReadAll(context.Background())
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCSVReaderMissingFile(t *testing.T) {
	_, err := NewCSVReader(filepath.Join(t.TempDir(), "nope.csv")).ReadAll(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseDate(t *testing.T) {
	for in, want := range map[string]string{
		"05/01/2024":           "2024-01-05",
		"2024-01-05":           "2024-01-05",
		" 2024-01-05 ":         "2024-01-05",
		"01-05-24":             "2024-01-05",
		"2024-01-05T00:00:00Z": "2024-01-05",
	} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.Format("2006-01-02"), in)
	}

	_, err := ParseDate("13/13/2024")
	assert.Error(t, err)
}
