package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/food-waste-optimizer/internal/geo"
	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

var (
	// ErrNotFound is returned when no plan has been stored for an origin.
	ErrNotFound = fmt.Errorf("no route plan for origin: %w", waste.ErrNotFound)
)

// PlanHistory holds a time-ordered list of route plans for an origin.
type PlanHistory struct {
	Plans []waste.RoutePlan
}

// MemoryStore is a concurrency-safe in-memory implementation of waste.PlanStore.
type MemoryStore struct {
	mu sync.RWMutex

	// key: origin key, value: history
	data map[string]*PlanHistory

	// retention configuration
	maxHistory int           // max number of plans per origin
	maxAge     time.Duration // optional max age for plans

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*PlanHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SavePlan appends a new plan for an origin and enforces retention.
func (s *MemoryStore) SavePlan(_ context.Context, origin geo.Point, plan waste.RoutePlan) error {
	key := origin.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &PlanHistory{}
		s.data[key] = history
	}

	history.Plans = append(history.Plans, plan)

	if s.maxHistory > 0 && len(history.Plans) > s.maxHistory {
		over := len(history.Plans) - s.maxHistory
		history.Plans = history.Plans[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Plans); i++ {
			if !history.Plans[i].GeneratedAt.Before(cutoff) {
				break
			}
		}
		history.Plans = history.Plans[i:]
	}
	return nil
}

// GetLatest returns the most recent plan for an origin.
func (s *MemoryStore) GetLatest(_ context.Context, origin geo.Point) (waste.RoutePlan, error) {
	key := origin.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Plans) == 0 {
		return waste.RoutePlan{}, ErrNotFound
	}
	return history.Plans[len(history.Plans)-1], nil
}

// GetRange returns all plans for an origin generated between from and to
// (inclusive). An origin with no plans at all is ErrNotFound; a range with
// no matches is an empty slice.
func (s *MemoryStore) GetRange(_ context.Context, origin geo.Point, from, to time.Time) ([]waste.RoutePlan, error) {
	key := origin.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Plans) == 0 {
		return nil, ErrNotFound
	}

	result := make([]waste.RoutePlan, 0)
	for _, plan := range history.Plans {
		if !plan.GeneratedAt.Before(from) && !plan.GeneratedAt.After(to) {
			result = append(result, plan)
		}
	}
	return result, nil
}
