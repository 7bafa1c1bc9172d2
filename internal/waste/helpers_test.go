package waste

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/i474232898/food-waste-optimizer/internal/geo"
)

// constClassifier always returns the same class probabilities.
type constClassifier []float64

func (c constClassifier) PredictProba(_ context.Context, _ []float64) ([]float64, error) {
	return c, nil
}

// hotClassifier flags anything warmer than its threshold as spoiled.
type hotClassifier float64

func (h hotClassifier) PredictProba(_ context.Context, features []float64) ([]float64, error) {
	if features[0] > float64(h) {
		return []float64{0, 1}, nil
	}
	return []float64{1, 0}, nil
}

type recordingClassifier struct {
	mu    sync.Mutex
	calls [][]float64
}

func (r *recordingClassifier) PredictProba(_ context.Context, features []float64) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]float64(nil), features...))
	return []float64{0.5, 0.5}, nil
}

type failingClassifier struct{}

func (failingClassifier) PredictProba(context.Context, []float64) ([]float64, error) {
	return nil, errors.New("model server exploded")
}

type staticModel struct {
	estimates []ForecastEstimate
	err       error
}

func (m staticModel) Predict(_ context.Context, _ int) ([]ForecastEstimate, error) {
	return m.estimates, m.err
}

type fakeLoader struct {
	models map[string]ForecastModel
	err    error
	delay  time.Duration
	loads  atomic.Int32
}

func (l *fakeLoader) Load(_ context.Context, productID string) (ForecastModel, error) {
	l.loads.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.err != nil {
		return nil, l.err
	}
	m, ok := l.models[productID]
	if !ok {
		return nil, NotFoundError("load model", "no model for %s", productID)
	}
	return m, nil
}

type staticDataset struct {
	records []ProductRecord
	err     error
}

func (d staticDataset) ReadAll(context.Context) ([]ProductRecord, error) {
	return d.records, d.err
}

type staticDirectory struct {
	recipients []Recipient
	err        error
}

func (d staticDirectory) ListAll(context.Context) ([]Recipient, error) {
	return d.recipients, d.err
}

type namedStock map[string]StockItem

func (n namedStock) Lookup(_ context.Context, productID string) (StockItem, error) {
	item, ok := n[productID]
	if !ok {
		return StockItem{}, errors.New("unknown sku")
	}
	return item, nil
}

type fakeStore struct {
	plans map[string][]RoutePlan
}

func newFakeStore() *fakeStore {
	return &fakeStore{plans: make(map[string][]RoutePlan)}
}

func (s *fakeStore) SavePlan(_ context.Context, origin geo.Point, plan RoutePlan) error {
	s.plans[origin.Key()] = append(s.plans[origin.Key()], plan)
	return nil
}

func (s *fakeStore) GetLatest(_ context.Context, origin geo.Point) (RoutePlan, error) {
	plans := s.plans[origin.Key()]
	if len(plans) == 0 {
		return RoutePlan{}, ErrNotFound
	}
	return plans[len(plans)-1], nil
}

func (s *fakeStore) GetRange(_ context.Context, origin geo.Point, from, to time.Time) ([]RoutePlan, error) {
	var out []RoutePlan
	for _, p := range s.plans[origin.Key()] {
		if !p.GeneratedAt.Before(from) && !p.GeneratedAt.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// productRows builds n daily records with constant conditions.
func productRows(id string, temp, humidity, rain float64, shelfLife, n int) []ProductRecord {
	rows := make([]ProductRecord, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, ProductRecord{
			ProductID:     id,
			Date:          day("2024-01-01").AddDate(0, 0, i),
			Temperature:   temp,
			Humidity:      humidity,
			RainfallMM:    rain,
			ShelfLifeDays: shelfLife,
			UnitsSold:     100 + i,
		})
	}
	return rows
}
