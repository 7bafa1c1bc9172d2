package waste

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/i474232898/food-waste-optimizer/internal/metrics"
)

// modelLoadTimeout bounds a shared model load.
const modelLoadTimeout = time.Minute

// ModelCache keeps loaded forecasting models for the lifetime of the process.
// Entries are never evicted: the model set is small and static, and a
// retrained model is picked up by restarting the service. Concurrent requests
// for the same uncached product share a single load.
type ModelCache struct {
	loader ModelLoader

	mu     sync.RWMutex
	models map[string]ForecastModel
	group  singleflight.Group
}

// NewModelCache creates an empty cache in front of loader.
func NewModelCache(loader ModelLoader) *ModelCache {
	return &ModelCache{
		loader: loader,
		models: make(map[string]ForecastModel),
	}
}

// Get returns the cached model for productID, loading it on first use.
func (c *ModelCache) Get(ctx context.Context, productID string) (ForecastModel, error) {
	c.mu.RLock()
	m, ok := c.models[productID]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	// The shared load outlives any single caller; each caller still
	// stops waiting when its own context ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(productID, func() (interface{}, error) {
		return c.load(loadCtx, productID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(ForecastModel), nil
	}
}

func (c *ModelCache) load(ctx context.Context, productID string) (ForecastModel, error) {
	c.mu.RLock()
	m, ok := c.models[productID]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	ctx, cancel := context.WithTimeout(ctx, modelLoadTimeout)
	defer cancel()

	m, err := c.loader.Load(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.ModelLoads.WithLabelValues("not_found").Inc()
		} else {
			metrics.ModelLoads.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	metrics.ModelLoads.WithLabelValues("loaded").Inc()

	c.mu.Lock()
	c.models[productID] = m
	c.mu.Unlock()
	return m, nil
}

// Cached returns the product ids currently held, sorted.
func (c *ModelCache) Cached() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.models))
	for id := range c.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DemandForecaster produces 7-day demand forecasts from per-product models.
type DemandForecaster struct {
	cache *ModelCache
}

// NewDemandForecaster creates a forecaster backed by cache.
func NewDemandForecaster(cache *ModelCache) *DemandForecaster {
	return &DemandForecaster{cache: cache}
}

// Forecast returns the next HorizonDays of demand for productID.
func (f *DemandForecaster) Forecast(ctx context.Context, productID string) (DemandForecast, error) {
	const op = "forecast demand"

	model, err := f.cache.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DemandForecast{}, NotFoundError(op, "model for %s not found", productID)
		}
		return DemandForecast{}, ComputationError(op, err, "load model for %s", productID)
	}

	estimates, err := model.Predict(ctx, HorizonDays)
	if err != nil {
		return DemandForecast{}, ComputationError(op, err, "predict %s", productID)
	}
	if len(estimates) < HorizonDays {
		return DemandForecast{}, ComputationError(op, nil, "model for %s returned %d of %d days", productID, len(estimates), HorizonDays)
	}

	// Models may return history before the horizon; keep the last days only.
	estimates = estimates[len(estimates)-HorizonDays:]

	out := DemandForecast{
		ProductID: productID,
		Forecast:  make([]DemandPoint, 0, HorizonDays),
	}
	for _, e := range estimates {
		v := int(math.Max(0, math.RoundToEven(e.Estimate)))
		out.Forecast = append(out.Forecast, DemandPoint{Date: Date(e.Date), Value: v})
		out.TotalDemand += v
	}
	return out, nil
}

// Warm loads models for the given products, returning the ids that failed.
func (f *DemandForecaster) Warm(ctx context.Context, productIDs []string) []string {
	var failed []string
	for _, id := range productIDs {
		if _, err := f.cache.Get(ctx, id); err != nil {
			failed = append(failed, id)
		}
	}
	return failed
}

// Cached returns the product ids with a loaded model.
func (f *DemandForecaster) Cached() []string {
	return f.cache.Cached()
}
