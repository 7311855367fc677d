package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/connectfood/internal/geo"
	"github.com/example/connectfood/internal/models"
	"github.com/example/connectfood/internal/storage"
)

const (
	// DefaultRadiusKm applies when a query omits the radius.
	DefaultRadiusKm = 10.0
	// DefaultMaxResults caps the returned slice.
	DefaultMaxResults = 100
)

// ListingDistance is a listing annotated with its distance from the
// query point, rounded to 2 decimal places.
type ListingDistance struct {
	models.Listing
	DistanceKm float64 `json:"distance_km"`
}

// Result holds one nearby-listing query's outcome. Count is the number
// of eligible listings before truncation.
type Result struct {
	Count int               `json:"count"`
	Items []ListingDistance `json:"items"`
}

// Service runs the nearby-listing pipeline over the record store.
type Service struct {
	Store      storage.Store
	MaxResults int
}

func NewService(store storage.Store) *Service {
	return &Service{Store: store, MaxResults: DefaultMaxResults}
}

// Nearby returns unexpired available/claimed listings within radiusKm of
// origin, closest first. A store failure is returned as an error so the
// caller can tell "store down" apart from "no nearby listings".
func (s *Service) Nearby(ctx context.Context, origin models.Coord, radiusKm float64, now time.Time) (Result, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	listings, err := s.Store.Listings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch listings: %w", err)
	}

	items := make([]ListingDistance, 0, len(listings))
	for _, l := range listings {
		if l.Expired(now) {
			continue
		}
		if l.Status != models.ListingAvailable && l.Status != models.ListingClaimed {
			continue
		}
		d := geo.HaversineKm(origin, l.Location)
		if d > radiusKm {
			continue
		}
		items = append(items, ListingDistance{Listing: l, DistanceKm: geo.RoundKm(d)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].DistanceKm < items[j].DistanceKm })

	res := Result{Count: len(items), Items: items}
	max := s.MaxResults
	if max <= 0 {
		max = DefaultMaxResults
	}
	if len(res.Items) > max {
		res.Items = res.Items[:max]
	}
	return res, nil
}
