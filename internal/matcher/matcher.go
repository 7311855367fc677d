package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/connectfood/internal/eta"
	"github.com/example/connectfood/internal/geo"
	"github.com/example/connectfood/internal/models"
	"github.com/example/connectfood/internal/observability"
	"github.com/example/connectfood/internal/storage"
)

// Scoring constants. Distance contributes nothing beyond saturationKm.
const (
	saturationKm   = 20.0
	distanceWeight = 0.7
	typeWeight     = 0.2
	freshWeight    = 0.1

	typeMatched   = 1.0
	typeUnmatched = 0.8

	// DefaultTopK is how many matches a single invocation returns.
	DefaultTopK = 5
)

// FreshnessSource supplies the randomized recency/engagement factor.
// Injectable so tests can pin the draw.
type FreshnessSource interface {
	Factor() float64
}

// UniformFreshness draws uniformly from [0.85, 1.0).
type UniformFreshness struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewUniformFreshness() *UniformFreshness {
	return &UniformFreshness{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (u *UniformFreshness) Factor() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return 0.85 + u.r.Float64()*0.15
}

// Notifier receives best-effort notifications for returned matches.
type Notifier interface {
	ProposedMatch(ctx context.Context, m models.Match) error
}

// Service ranks active recipients against a listing and persists the
// generated proposals.
type Service struct {
	Store     storage.Store
	Freshness FreshnessSource
	Notify    Notifier // optional
	Logger    *slog.Logger
	SpeedKmh  float64
	TopK      int
}

func NewService(store storage.Store, logger *slog.Logger) *Service {
	return &Service{
		Store:     store,
		Freshness: NewUniformFreshness(),
		Logger:    logger,
		SpeedKmh:  eta.DefaultSpeedKmh,
		TopK:      DefaultTopK,
	}
}

// Match scores every active recipient against the listing, persists one
// proposed Match per recipient, and returns the top K by descending
// score (ties broken by ascending distance).
//
// The persisted set is deliberately a superset of the response. There is
// no rollback: a persistence failure mid-loop leaves earlier records in
// place and drops only the failed candidate.
func (s *Service) Match(ctx context.Context, listingID string) ([]models.Match, error) {
	listing, err := s.Store.ListingByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("resolve listing %q: %w", listingID, err)
	}

	recipients, err := s.Store.ActiveRecipients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}
	if len(recipients) == 0 {
		return []models.Match{}, nil
	}

	matches := make([]models.Match, 0, len(recipients))
	for _, r := range recipients {
		loc := models.Coord{}
		if r.Location != nil {
			loc = *r.Location
		}
		dist := geo.HaversineKm(listing.Location, loc)

		m := models.Match{
			ListingID:   listing.ID,
			DonorID:     listing.DonorID,
			RecipientID: r.ID,
			Score:       s.score(dist, listing.Type, r.PreferredType),
			DistanceKm:  geo.RoundKm(dist),
			RouteETAMin: eta.RoundMinutes(eta.EstimateMinutes(dist, s.SpeedKmh)),
			Status:      models.MatchProposed,
		}
		if _, err := s.Store.CreateMatch(ctx, &m); err != nil {
			if s.Logger != nil {
				s.Logger.Error("persist match failed", "listing_id", listing.ID, "recipient_id", r.ID, "error", err)
			}
			continue
		}
		observability.MatchesPersisted.Inc()
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	topK := s.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	observability.MatchRunsTotal.Inc()

	if s.Notify != nil {
		for _, m := range matches {
			if err := s.Notify.ProposedMatch(ctx, m); err != nil && s.Logger != nil {
				s.Logger.Warn("match notification failed", "match_id", m.ID, "error", err)
			}
		}
	}
	return matches, nil
}

// score composes the distance, category and freshness terms, clamped to
// [0,1] and rounded to 3 decimals.
func (s *Service) score(distKm float64, listingType, preferredType string) float64 {
	distTerm := math.Max(0, 1-distKm/saturationKm)
	typeTerm := typeMatched
	if preferredType != "" && !strings.EqualFold(preferredType, listingType) {
		typeTerm = typeUnmatched
	}
	raw := distTerm*distanceWeight + typeTerm*typeWeight + s.Freshness.Factor()*freshWeight
	raw = math.Min(1, math.Max(0, raw))
	return math.Round(raw*1000) / 1000
}
