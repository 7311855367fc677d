package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/connectfood/internal/models"
	"github.com/example/connectfood/internal/storage"
)

// latForKm returns the latitude offset putting a point the given
// distance north of the equator.
func latForKm(km float64) float64 {
	return km / 111.194926644559 // km per degree on a 6371 km sphere
}

func seedListing(t *testing.T, store storage.Store, l models.Listing) models.Listing {
	t.Helper()
	if l.Status == "" {
		l.Status = models.ListingAvailable
	}
	if _, err := store.CreateListing(context.Background(), &l); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return l
}

func TestNearbyIncludesListingWithinRadius(t *testing.T) {
	store := storage.NewMemoryStore()
	seedListing(t, store, models.Listing{Title: "bread", Type: "bread", Location: models.Coord{Lat: latForKm(5)}})

	svc := NewService(store)
	res, err := svc.Nearby(context.Background(), models.Coord{}, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 1 || len(res.Items) != 1 {
		t.Fatalf("count=%d items=%d, want 1/1", res.Count, len(res.Items))
	}
	if res.Items[0].DistanceKm != 5.0 {
		t.Fatalf("distance = %v, want 5.00", res.Items[0].DistanceKm)
	}
}

func TestNearbyExcludesBeyondRadius(t *testing.T) {
	store := storage.NewMemoryStore()
	seedListing(t, store, models.Listing{Location: models.Coord{Lat: latForKm(11)}})

	svc := NewService(store)
	res, err := svc.Nearby(context.Background(), models.Coord{}, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 0 {
		t.Fatalf("count = %d, want 0", res.Count)
	}
}

func TestNearbyExcludesExpired(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	seedListing(t, store, models.Listing{Location: models.Coord{Lat: latForKm(5)}, ExpiresAt: &past})

	svc := NewService(store)
	res, err := svc.Nearby(context.Background(), models.Coord{}, 10, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 0 {
		t.Fatalf("expired listing returned, count = %d", res.Count)
	}
}

func TestNearbyFiltersStatus(t *testing.T) {
	store := storage.NewMemoryStore()
	seedListing(t, store, models.Listing{Status: models.ListingAvailable})
	seedListing(t, store, models.Listing{Status: models.ListingClaimed})
	seedListing(t, store, models.Listing{Status: models.ListingCompleted})
	seedListing(t, store, models.Listing{Status: models.ListingExpired})

	svc := NewService(store)
	res, err := svc.Nearby(context.Background(), models.Coord{}, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("count = %d, want 2 (available+claimed)", res.Count)
	}
}

func TestNearbySortedAscendingAndCapped(t *testing.T) {
	store := storage.NewMemoryStore()
	for i := 0; i < 120; i++ {
		seedListing(t, store, models.Listing{
			Title:    fmt.Sprintf("l%d", i),
			Location: models.Coord{Lat: latForKm(float64(120-i) * 0.05)},
		})
	}

	svc := NewService(store)
	res, err := svc.Nearby(context.Background(), models.Coord{}, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 120 {
		t.Fatalf("count = %d, want pre-truncation 120", res.Count)
	}
	if len(res.Items) != 100 {
		t.Fatalf("items = %d, want cap 100", len(res.Items))
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i].DistanceKm < res.Items[i-1].DistanceKm {
			t.Fatalf("not sorted at %d: %v < %v", i, res.Items[i].DistanceKm, res.Items[i-1].DistanceKm)
		}
	}
}

func TestNearbyDefaultRadius(t *testing.T) {
	store := storage.NewMemoryStore()
	seedListing(t, store, models.Listing{Location: models.Coord{Lat: latForKm(9)}})
	seedListing(t, store, models.Listing{Location: models.Coord{Lat: latForKm(11)}})

	svc := NewService(store)
	res, err := svc.Nearby(context.Background(), models.Coord{}, 0, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 1 {
		t.Fatalf("count = %d, want 1 inside the 10 km default", res.Count)
	}
}

type failingStore struct {
	storage.Store
}

func (failingStore) Listings(ctx context.Context) ([]models.Listing, error) {
	return nil, errors.New("store unreachable")
}

func TestNearbyStoreErrorIsDistinguishable(t *testing.T) {
	svc := NewService(failingStore{})
	_, err := svc.Nearby(context.Background(), models.Coord{}, 10, time.Now().UTC())
	if err == nil {
		t.Fatal("want error when store is down, got nil")
	}
}
