package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/snappy"
	"github.com/redis/go-redis/v9"

	"github.com/i474232898/food-waste-optimizer/internal/geo"
	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

const planKeyPrefix = "route_plans:"

// RedisConfig holds connection settings for the plan store.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient creates a redis client with the service's pool settings.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// RedisStore keeps route plans in one sorted set per origin, scored by
// generation time in milliseconds. Members are snappy-compressed JSON.
type RedisStore struct {
	client     *redis.Client
	maxHistory int
	maxAge     time.Duration
	now        func() time.Time
}

// NewRedisStore creates a RedisStore with the same retention rules as MemoryStore.
func NewRedisStore(client *redis.Client, maxHistory int, maxAge time.Duration) *RedisStore {
	return &RedisStore{
		client:     client,
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// SavePlan implements waste.PlanStore.
func (s *RedisStore) SavePlan(ctx context.Context, origin geo.Point, plan waste.RoutePlan) error {
	member, err := encodePlan(plan)
	if err != nil {
		return err
	}
	key := planKey(origin)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(plan.GeneratedAt.UnixMilli()), Member: member})
		if s.maxHistory > 0 {
			pipe.ZRemRangeByRank(ctx, key, 0, int64(-s.maxHistory-1))
		}
		if s.maxAge > 0 {
			cutoff := s.now().Add(-s.maxAge).UnixMilli()
			pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save route plan: %w", err)
	}
	return nil
}

// GetLatest implements waste.PlanStore.
func (s *RedisStore) GetLatest(ctx context.Context, origin geo.Point) (waste.RoutePlan, error) {
	members, err := s.client.ZRevRange(ctx, planKey(origin), 0, 0).Result()
	if err != nil {
		return waste.RoutePlan{}, fmt.Errorf("read latest route plan: %w", err)
	}
	if len(members) == 0 {
		return waste.RoutePlan{}, ErrNotFound
	}
	return decodePlan(members[0])
}

// GetRange implements waste.PlanStore.
func (s *RedisStore) GetRange(ctx context.Context, origin geo.Point, from, to time.Time) ([]waste.RoutePlan, error) {
	key := planKey(origin)

	n, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read route plans: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	members, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(from.UnixMilli(), 10),
		Max: strconv.FormatInt(to.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read route plans: %w", err)
	}

	plans := make([]waste.RoutePlan, 0, len(members))
	for _, m := range members {
		plan, err := decodePlan(m)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func planKey(origin geo.Point) string {
	return planKeyPrefix + origin.Key()
}

func encodePlan(plan waste.RoutePlan) (string, error) {
	raw, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("encode route plan: %w", err)
	}
	return string(snappy.Encode(nil, raw)), nil
}

func decodePlan(member string) (waste.RoutePlan, error) {
	raw, err := snappy.Decode(nil, []byte(member))
	if err != nil {
		return waste.RoutePlan{}, fmt.Errorf("decompress route plan: %w", err)
	}
	var plan waste.RoutePlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return waste.RoutePlan{}, fmt.Errorf("decode route plan: %w", err)
	}
	return plan, nil
}
