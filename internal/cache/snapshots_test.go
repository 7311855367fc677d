package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/connectfood/internal/models"
)

func TestMemorySnapshotsRoundTrip(t *testing.T) {
	s := NewMemorySnapshots()
	ctx := context.Background()

	if _, err := s.Latest(ctx, "l1"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("want ErrNoSnapshot, got %v", err)
	}

	r := models.FreshnessReading{ListingID: "l1", Freshness: 92, TemperatureC: 6.5, Humidity: 55, Timestamp: time.Now().UTC()}
	if err := s.Put(ctx, r); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Latest(ctx, "l1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Freshness != 92 || got.TemperatureC != 6.5 || got.Humidity != 55 {
		t.Fatalf("got %+v", got)
	}
}

func TestMemorySnapshotsKeepsOnlyLatest(t *testing.T) {
	s := NewMemorySnapshots()
	ctx := context.Background()
	_ = s.Put(ctx, models.FreshnessReading{ListingID: "l1", Freshness: 92})
	_ = s.Put(ctx, models.FreshnessReading{ListingID: "l1", Freshness: 90})

	got, err := s.Latest(ctx, "l1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Freshness != 90 {
		t.Fatalf("freshness = %d, want the most recent 90", got.Freshness)
	}
}
