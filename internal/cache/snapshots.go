package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/connectfood/internal/models"
)

// ErrNoSnapshot is returned when a listing has no telemetry yet.
var ErrNoSnapshot = errors.New("no freshness snapshot")

// Snapshots stores the latest freshness reading per listing. The feed
// and the kafka consumer write; the HTTP layer reads.
type Snapshots interface {
	Put(ctx context.Context, r models.FreshnessReading) error
	Latest(ctx context.Context, listingID string) (*models.FreshnessReading, error)
}

// RedisSnapshots keeps snapshots in per-listing redis hashes so they
// survive server restarts and are shared with the consumer process.
type RedisSnapshots struct {
	client *redis.Client
}

func NewRedisSnapshots(addr, password string) *RedisSnapshots {
	return &RedisSnapshots{client: redis.NewClient(&redis.Options{Addr: addr, Password: password})}
}

func snapshotKey(listingID string) string { return "listing:freshness:" + listingID }

func (s *RedisSnapshots) Put(ctx context.Context, r models.FreshnessReading) error {
	return s.client.HSet(ctx, snapshotKey(r.ListingID), map[string]interface{}{
		"freshness":     strconv.Itoa(r.Freshness),
		"temperature_c": strconv.FormatFloat(r.TemperatureC, 'f', 1, 64),
		"humidity":      strconv.Itoa(r.Humidity),
		"timestamp":     r.Timestamp.Format(time.RFC3339),
	}).Err()
}

func (s *RedisSnapshots) Latest(ctx context.Context, listingID string) (*models.FreshnessReading, error) {
	m, err := s.client.HGetAll(ctx, snapshotKey(listingID)).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrNoSnapshot
	}
	r := &models.FreshnessReading{ListingID: listingID}
	if v, ok := m["freshness"]; ok {
		r.Freshness, _ = strconv.Atoi(v)
	}
	if v, ok := m["temperature_c"]; ok {
		r.TemperatureC, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["humidity"]; ok {
		r.Humidity, _ = strconv.Atoi(v)
	}
	if v, ok := m["timestamp"]; ok {
		r.Timestamp, _ = time.Parse(time.RFC3339, v)
	}
	return r, nil
}

func (s *RedisSnapshots) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MemorySnapshots is the fallback when no redis address is configured.
type MemorySnapshots struct {
	mu     sync.RWMutex
	latest map[string]models.FreshnessReading
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{latest: make(map[string]models.FreshnessReading)}
}

func (s *MemorySnapshots) Put(ctx context.Context, r models.FreshnessReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[r.ListingID] = r
	return nil
}

func (s *MemorySnapshots) Latest(ctx context.Context, listingID string) (*models.FreshnessReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.latest[listingID]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return &r, nil
}
