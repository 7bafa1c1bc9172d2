package models

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

func writeModel(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestFileModelRegistryPredict(t *testing.T) {
	dir := t.TempDir()
	// 2024-03-31 is a Sunday.
	writeModel(t, dir, "demand_model_P001.json", `{
		"product_id": "P001",
		"start": "2024-03-01",
		"last_date": "2024-03-31",
		"intercept": 100,
		"slope": 0.5,
		"weekly": [0, 1, 2, 3, 4, 5, 6]
	}`)

	reg := NewFileModelRegistry(dir)
	model, err := reg.Load(context.Background(), "P001")
	require.NoError(t, err)

	estimates, err := model.Predict(context.Background(), waste.HorizonDays)
	require.NoError(t, err)
	require.Len(t, estimates, waste.HorizonDays)

	// 2024-04-01 is a Monday, 31 days after start.
	assert.Equal(t, "2024-04-01", estimates[0].Date.Format(waste.DateLayout))
	assert.InDelta(t, 100+0.5*31+1, estimates[0].Estimate, 1e-9)
	assert.Equal(t, "2024-04-07", estimates[6].Date.Format(waste.DateLayout))
	assert.InDelta(t, 100+0.5*37+0, estimates[6].Estimate, 1e-9)
}

func TestFileModelRegistryErrors(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "demand_model_BAD.json", `{not json`)
	writeModel(t, dir, "demand_model_SHORT.json", `{"start":"2024-01-01","last_date":"2024-01-02","weekly":[1,2]}`)
	reg := NewFileModelRegistry(dir)
	ctx := context.Background()

	_, err := reg.Load(ctx, "P404")
	assert.ErrorIs(t, err, waste.ErrNotFound)

	_, err = reg.Load(ctx, "BAD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, waste.ErrNotFound)

	_, err = reg.Load(ctx, "SHORT")
	assert.ErrorContains(t, err, "weekly profile")
}

func TestFileModelRegistryStaysInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "models")
	require.NoError(t, os.Mkdir(dir, 0o700))
	writeModel(t, root, "evil.json", `{
		"product_id": "evil",
		"start": "2024-01-01",
		"last_date": "2024-01-30",
		"intercept": 999,
		"slope": 0,
		"weekly": [0, 0, 0, 0, 0, 0, 0]
	}`)
	writeModel(t, root, "demand_model_UP.json", `{
		"start": "2024-01-01",
		"last_date": "2024-01-30",
		"weekly": [0, 0, 0, 0, 0, 0, 0]
	}`)
	reg := NewFileModelRegistry(dir)

	for _, id := range []string{"x/../../evil", "../evil", "x\\..\\..\\evil", "/../UP", "P001/"} {
		model, err := reg.Load(context.Background(), id)
		assert.ErrorIs(t, err, waste.ErrNotFound, id)
		assert.Nil(t, model, id)
	}
}

func TestFileModelRegistryAvailable(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "demand_model_P002.json", `{}`)
	writeModel(t, dir, "demand_model_P001.json", `{}`)
	writeModel(t, dir, "spoilage_model.json", `{}`)
	writeModel(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "demand_model_DIR.json"), 0o700))

	ids, err := NewFileModelRegistry(dir).Available(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"P001", "P002"}, ids)

	ids, err = NewFileModelRegistry(filepath.Join(dir, "missing")).Available(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRuleClassifier(t *testing.T) {
	tests := []struct {
		name     string
		features []float64
		want     []float64
	}{
		{name: "cool", features: []float64{20, 60, 0, 1}, want: []float64{1, 0}},
		{name: "hot and expiring", features: []float64{33, 60, 0, 2}, want: []float64{0, 1}},
		{name: "hot with shelf life left", features: []float64{33, 60, 0, 3}, want: []float64{1, 0}},
		{name: "extreme heat", features: []float64{38.1, 60, 0, 9}, want: []float64{0, 1}},
		{name: "boundary", features: []float64{38, 60, 0, 9}, want: []float64{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RuleClassifier{}.PredictProba(context.Background(), tt.features)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := RuleClassifier{}.PredictProba(context.Background(), []float64{1, 2})
	assert.Error(t, err)
}
