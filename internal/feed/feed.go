package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/connectfood/internal/cache"
	"github.com/example/connectfood/internal/freshness"
	"github.com/example/connectfood/internal/models"
	"github.com/example/connectfood/internal/observability"
)

// ReadingPublisher forwards readings to the telemetry bus.
type ReadingPublisher interface {
	PublishReading(r models.FreshnessReading) error
}

// Feed streams simulated sensor readings for a listing over a websocket
// at a fixed cadence, mirroring each reading into the snapshot cache and
// (when configured) onto kafka.
type Feed struct {
	Snapshots cache.Snapshots
	Producer  ReadingPublisher // optional
	Logger    *slog.Logger
	Interval  time.Duration
	// NewSource overrides the randomness per session; tests pin it.
	NewSource func() freshness.Source
}

func (f *Feed) interval() time.Duration {
	if f.Interval <= 0 {
		return time.Second
	}
	return f.Interval
}

// Stream pushes readings until the client disconnects or ctx ends.
// It always returns; a write error just means the peer went away.
func (f *Feed) Stream(ctx context.Context, conn *websocket.Conn, listingID string) {
	observability.FreshnessFeeds.Inc()
	defer observability.FreshnessFeeds.Dec()

	var src freshness.Source
	if f.NewSource != nil {
		src = f.NewSource()
	}
	sim := freshness.NewSimulator(listingID, src)

	ticker := time.NewTicker(f.interval())
	defer ticker.Stop()

	for {
		reading := sim.Next(time.Now())
		if err := conn.WriteJSON(reading); err != nil {
			return
		}
		f.record(ctx, reading)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (f *Feed) record(ctx context.Context, r models.FreshnessReading) {
	if f.Snapshots != nil {
		if err := f.Snapshots.Put(ctx, r); err != nil && f.Logger != nil {
			f.Logger.Warn("snapshot write failed", "listing_id", r.ListingID, "error", err)
		}
	}
	if f.Producer != nil {
		if err := f.Producer.PublishReading(r); err != nil && f.Logger != nil {
			f.Logger.Warn("reading publish failed", "listing_id", r.ListingID, "error", err)
		}
	}
}
