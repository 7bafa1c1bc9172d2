package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/food-waste-optimizer/internal/common"
	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

// dateLayouts are tried in order. The exported daily aggregate uses
// day-first dates; spreadsheets re-saved by Excel come back month-first.
var dateLayouts = []string{"02/01/2006", "2006-01-02", "01-02-06", time.RFC3339}

type columns struct {
	productID, date, temperature, humidity, rainfall, shelfLife, unitsSold int
}

func locateColumns(header []string) (columns, error) {
	c := columns{
		productID:   common.IndexOf(header, "product_id", "product_code", "sku"),
		date:        common.IndexOf(header, "date", "day"),
		temperature: common.IndexOf(header, "temperature", "temp"),
		humidity:    common.IndexOf(header, "humidity"),
		rainfall:    common.IndexOf(header, "rainfall_mm", "rainfall"),
		shelfLife:   common.IndexOf(header, "shelf_life_days", "shelf_life"),
		unitsSold:   common.IndexOf(header, "units_sold", "sales", "quantity"),
	}

	var missing []string
	for name, idx := range map[string]int{
		"product_id":      c.productID,
		"date":            c.date,
		"temperature":     c.temperature,
		"humidity":        c.humidity,
		"rainfall_mm":     c.rainfall,
		"shelf_life_days": c.shelfLife,
	} {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return c, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return c, nil
}

// parseRows turns a header row plus data rows into records. Blank lines are
// skipped; any malformed value fails the whole read with its line number.
func parseRows(rows [][]string) ([]waste.ProductRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	header := append([]string(nil), rows[0]...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	records := make([]waste.ProductRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		rec, err := parseRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(c columns, row []string) (waste.ProductRecord, error) {
	var rec waste.ProductRecord
	var err error

	rec.ProductID = cell(row, c.productID)
	if rec.ProductID == "" {
		return rec, fmt.Errorf("empty product_id")
	}
	if rec.Date, err = ParseDate(cell(row, c.date)); err != nil {
		return rec, err
	}
	if rec.Temperature, err = parseFloat("temperature", cell(row, c.temperature)); err != nil {
		return rec, err
	}
	if rec.Humidity, err = parseFloat("humidity", cell(row, c.humidity)); err != nil {
		return rec, err
	}
	if rec.RainfallMM, err = parseFloat("rainfall_mm", cell(row, c.rainfall)); err != nil {
		return rec, err
	}
	if rec.ShelfLifeDays, err = parseInt("shelf_life_days", cell(row, c.shelfLife)); err != nil {
		return rec, err
	}
	if rec.ShelfLifeDays < 0 {
		return rec, fmt.Errorf("negative shelf_life_days %d", rec.ShelfLifeDays)
	}
	if c.unitsSold >= 0 && cell(row, c.unitsSold) != "" {
		if rec.UnitsSold, err = parseInt("units_sold", cell(row, c.unitsSold)); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// ParseDate parses a dataset date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

// parseInt accepts integral floats such as "5.0", which pandas writes for
// columns that once held a NaN.
func parseInt(name, s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return int(f), nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
