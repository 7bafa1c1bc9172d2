package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

const (
	modelFilePrefix = "demand_model_"
	modelFileSuffix = ".json"
)

// FileModelRegistry loads exported demand models from a directory of
// demand_model_<product_id>.json files.
type FileModelRegistry struct {
	dir string
}

// NewFileModelRegistry creates a registry reading from dir.
func NewFileModelRegistry(dir string) *FileModelRegistry {
	return &FileModelRegistry{dir: dir}
}

// ModelFile is the on-disk form of an additive trend + weekly seasonality
// model. Weekly holds one additive term per weekday, Sunday first.
type ModelFile struct {
	ProductID string     `json:"product_id"`
	Start     waste.Date `json:"start"`
	LastDate  waste.Date `json:"last_date"`
	Intercept float64    `json:"intercept"`
	Slope     float64    `json:"slope"`
	Weekly    []float64  `json:"weekly"`
}

// Load implements waste.ModelLoader.
func (r *FileModelRegistry) Load(_ context.Context, productID string) (waste.ForecastModel, error) {
	name := modelFilePrefix + productID + modelFileSuffix
	if !validModelName(name) {
		return nil, waste.NotFoundError("load demand model", "no model file for %s", productID)
	}
	path := filepath.Join(r.dir, name)

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, waste.NotFoundError("load demand model", "no model file for %s", productID)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var mf ModelFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(mf.Weekly) != 7 {
		return nil, fmt.Errorf("parse %s: weekly profile has %d terms, want 7", path, len(mf.Weekly))
	}
	if mf.LastDate.Time().Before(mf.Start.Time()) {
		return nil, fmt.Errorf("parse %s: last_date before start", path)
	}
	return &mf, nil
}

// validModelName reports whether name is a plain file name inside the
// model directory.
func validModelName(name string) bool {
	return filepath.IsLocal(name) && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

// Available implements waste.ModelCatalog.
func (r *FileModelRegistry) Available(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, modelFilePrefix) || !strings.HasSuffix(name, modelFileSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, modelFilePrefix), modelFileSuffix)
		if id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Predict returns horizon daily estimates following LastDate.
func (m *ModelFile) Predict(ctx context.Context, horizon int) ([]waste.ForecastEstimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	start := m.Start.Time()
	last := m.LastDate.Time()

	out := make([]waste.ForecastEstimate, 0, horizon)
	for h := 1; h <= horizon; h++ {
		d := last.AddDate(0, 0, h)
		t := d.Sub(start).Hours() / 24
		out = append(out, waste.ForecastEstimate{
			Date:     d,
			Estimate: m.Intercept + m.Slope*t + m.Weekly[int(d.Weekday())],
		})
	}
	return out, nil
}

var _ waste.ForecastModel = (*ModelFile)(nil)
