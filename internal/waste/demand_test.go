package waste

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func estimatesFrom(start string, values ...float64) []ForecastEstimate {
	out := make([]ForecastEstimate, 0, len(values))
	for i, v := range values {
		out = append(out, ForecastEstimate{Date: day(start).AddDate(0, 0, i), Estimate: v})
	}
	return out
}

func TestForecastRoundsAndFloors(t *testing.T) {
	loader := &fakeLoader{models: map[string]ForecastModel{
		"P001": staticModel{estimates: estimatesFrom("2024-02-01", 12.4, -3.2, 7.6, 0.49, 20, 2.5, 3.5)},
	}}
	f := NewDemandForecaster(NewModelCache(loader))

	got, err := f.Forecast(context.Background(), "P001")
	require.NoError(t, err)

	values := make([]int, 0, len(got.Forecast))
	for _, p := range got.Forecast {
		values = append(values, p.Value)
	}
	assert.Equal(t, []int{12, 0, 8, 0, 20, 2, 4}, values)
	assert.Equal(t, 46, got.TotalDemand)
	assert.Equal(t, "2024-02-01", got.Forecast[0].Date.String())
	assert.Equal(t, "P001", got.ProductID)
}

func TestForecastKeepsLastHorizonDays(t *testing.T) {
	loader := &fakeLoader{models: map[string]ForecastModel{
		"P001": staticModel{estimates: estimatesFrom("2024-01-29", 1, 1, 1, 10, 10, 10, 10, 10, 10, 10)},
	}}
	f := NewDemandForecaster(NewModelCache(loader))

	got, err := f.Forecast(context.Background(), "P001")
	require.NoError(t, err)

	require.Len(t, got.Forecast, HorizonDays)
	assert.Equal(t, "2024-02-01", got.Forecast[0].Date.String())
	assert.Equal(t, 70, got.TotalDemand)
}

func TestForecastErrors(t *testing.T) {
	loader := &fakeLoader{models: map[string]ForecastModel{
		"SHORT":  staticModel{estimates: estimatesFrom("2024-02-01", 1, 2, 3)},
		"BROKEN": staticModel{err: errors.New("nan in trend")},
	}}
	f := NewDemandForecaster(NewModelCache(loader))

	_, err := f.Forecast(context.Background(), "P404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Forecast(context.Background(), "SHORT")
	assert.ErrorIs(t, err, ErrComputation)

	_, err = f.Forecast(context.Background(), "BROKEN")
	assert.ErrorIs(t, err, ErrComputation)
	assert.Contains(t, err.Error(), "nan in trend")

	failing := NewDemandForecaster(NewModelCache(&fakeLoader{err: errors.New("disk unreadable")}))
	_, err = failing.Forecast(context.Background(), "P001")
	assert.ErrorIs(t, err, ErrComputation)
}

func TestModelCacheLoadsOnce(t *testing.T) {
	loader := &fakeLoader{models: map[string]ForecastModel{
		"P001": staticModel{estimates: estimatesFrom("2024-02-01", 1, 2, 3, 4, 5, 6, 7)},
	}}
	cache := NewModelCache(loader)

	for i := 0; i < 3; i++ {
		_, err := cache.Get(context.Background(), "P001")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), loader.loads.Load())
	assert.Equal(t, []string{"P001"}, cache.Cached())
}

func TestModelCacheSingleFlight(t *testing.T) {
	loader := &fakeLoader{
		models: map[string]ForecastModel{"P001": staticModel{}},
		delay:  20 * time.Millisecond,
	}
	cache := NewModelCache(loader)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background(), "P001")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.loads.Load())
}

// gatedLoader blocks every load until release is closed or the load's
// context ends.
type gatedLoader struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	loads   atomic.Int32
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{started: make(chan struct{}), release: make(chan struct{})}
}

func (l *gatedLoader) Load(ctx context.Context, _ string) (ForecastModel, error) {
	l.loads.Add(1)
	l.once.Do(func() { close(l.started) })
	select {
	case <-l.release:
		return staticModel{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestModelCacheSharedLoadSurvivesCallerCancel(t *testing.T) {
	loader := newGatedLoader()
	cache := NewModelCache(loader)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(firstCtx, "P001")
		firstErr <- err
	}()
	<-loader.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(context.Background(), "P001")
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(loader.release)
	assert.NoError(t, <-secondErr)
	assert.Equal(t, []string{"P001"}, cache.Cached())
	assert.Equal(t, int32(1), loader.loads.Load())
}

func TestModelCacheCallerStopsWaitingOnOwnCancel(t *testing.T) {
	loader := newGatedLoader()
	defer close(loader.release)
	cache := NewModelCache(loader)

	go func() { _, _ = cache.Get(context.Background(), "P001") }()
	<-loader.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := cache.Get(ctx, "P001")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestModelCacheDoesNotCacheMisses(t *testing.T) {
	loader := &fakeLoader{models: map[string]ForecastModel{}}
	cache := NewModelCache(loader)

	_, err := cache.Get(context.Background(), "P404")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = cache.Get(context.Background(), "P404")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, int32(2), loader.loads.Load())
	assert.Empty(t, cache.Cached())
}

func TestWarm(t *testing.T) {
	loader := &fakeLoader{models: map[string]ForecastModel{
		"P001": staticModel{},
		"P003": staticModel{},
	}}
	f := NewDemandForecaster(NewModelCache(loader))

	failed := f.Warm(context.Background(), []string{"P001", "P002", "P003"})

	assert.Equal(t, []string{"P002"}, failed)
	assert.Equal(t, []string{"P001", "P003"}, f.Cached())
}
