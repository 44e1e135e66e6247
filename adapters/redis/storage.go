package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wellkit/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements the engine.StandingStore interface using Redis. It caches
// the last known standing so fallback paths still work when the wellness
// backend (not Redis) is down.
// Data structure:
// - standing:{user_id}:points -> int64 (points total)
// - standing:{user_id}:streak -> int64
// - standing:{user_id}:snapshot -> JSON blob of Standing for quick retrieval
type Store struct {
	client *redis.Client
}

// New creates a new Redis-backed store with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func pointsKey(user core.UserID) string   { return fmt.Sprintf("standing:%s:points", user) }
func streakKey(user core.UserID) string   { return fmt.Sprintf("standing:%s:streak", user) }
func snapshotKey(user core.UserID) string { return fmt.Sprintf("standing:%s:snapshot", user) }

// Lua script for atomic point addition with overflow protection
var addPointsScript = redis.NewScript(`
	local key = KEYS[1]
	local delta = tonumber(ARGV[1])
	local current = tonumber(redis.call('GET', key) or '0')
	local next_val = current + delta

	if next_val > 9223372036854775807 or next_val < 0 then
		return redis.error_reply('points out of range')
	end

	redis.call('SET', key, next_val)
	return next_val
`)

// AddPoints atomically credits points and returns the standing with the
// level recomputed from the new total.
func (s *Store) AddPoints(ctx context.Context, user core.UserID, delta int64) (core.Standing, error) {
	if delta == 0 {
		return core.Standing{}, errors.New("delta cannot be zero")
	}

	result, err := addPointsScript.Run(ctx, s.client, []string{pointsKey(user)}, delta).Result()
	if err != nil {
		return core.Standing{}, fmt.Errorf("failed to add points: %w", err)
	}
	total, ok := result.(int64)
	if !ok {
		return core.Standing{}, errors.New("unexpected result type from Redis script")
	}

	streak, _ := s.client.Get(ctx, streakKey(user)).Int()
	st := core.NewStanding(user, total, streak)
	// refresh the snapshot since the totals changed
	_ = s.cacheSnapshot(ctx, st)
	return st, nil
}

// Put replaces the stored standing.
func (s *Store) Put(ctx context.Context, st core.Standing) error {
	st = core.NewStanding(st.UserID, st.Points, st.Streak)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, pointsKey(st.UserID), st.Points, 0)
	pipe.Set(ctx, streakKey(st.UserID), st.Streak, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store standing: %w", err)
	}
	return s.cacheSnapshot(ctx, st)
}

// Get retrieves the standing, preferring the cached snapshot.
func (s *Store) Get(ctx context.Context, user core.UserID) (core.Standing, error) {
	if data, err := s.client.Get(ctx, snapshotKey(user)).Bytes(); err == nil {
		var st core.Standing
		if err := json.Unmarshal(data, &st); err == nil {
			return st, nil
		}
	}

	points, err := s.client.Get(ctx, pointsKey(user)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.NewStanding(user, 0, 0), nil
		}
		return core.Standing{}, fmt.Errorf("failed to get points: %w", err)
	}
	streak, _ := s.client.Get(ctx, streakKey(user)).Int()
	st := core.NewStanding(user, points, streak)
	_ = s.cacheSnapshot(ctx, st)
	return st, nil
}

// Clear removes the user's standing keys.
func (s *Store) Clear(ctx context.Context, user core.UserID) error {
	if err := s.client.Del(ctx, pointsKey(user), streakKey(user), snapshotKey(user)).Err(); err != nil {
		return fmt.Errorf("failed to clear standing: %w", err)
	}
	return nil
}

func (s *Store) cacheSnapshot(ctx context.Context, st core.Standing) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	// Cache for 5 minutes
	return s.client.Set(ctx, snapshotKey(st.UserID), data, 5*time.Minute).Err()
}
