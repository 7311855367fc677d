package models

import "time"

// Coord is a geographic point in degrees. Latitude/longitude range
// checks happen at the HTTP boundary; internal code assumes valid input.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Account roles.
const (
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
)

type Account struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"` // plaintext, prototype only
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
	// PreferredType is the recipient's declared food category preference,
	// compared against Listing.Type during matching. Empty means no preference.
	PreferredType string `json:"preferred_type,omitempty"`
	Location      *Coord `json:"location,omitempty"`
	Active        bool   `json:"is_active"`
}

// Listing lifecycle statuses.
const (
	ListingAvailable = "available"
	ListingClaimed   = "claimed"
	ListingCompleted = "completed"
	ListingExpired   = "expired"
)

type Listing struct {
	ID          string     `json:"_id"`
	DonorID     string     `json:"donor_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	Location    Coord      `json:"location"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Expired reports whether the listing's best-by time is strictly before now.
// Listings without an expiry never expire.
func (l Listing) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// Match statuses. Only "proposed" is ever written by the matcher; the
// rest belong to the downstream claim/fulfillment flow.
const (
	MatchProposed  = "proposed"
	MatchAccepted  = "accepted"
	MatchRejected  = "rejected"
	MatchInTransit = "in_transit"
	MatchDelivered = "delivered"
)

// Match pairs a listing with a recipient. Score, distance and ETA are
// computed once at creation and never recomputed on read.
type Match struct {
	ID          string    `json:"_id"`
	ListingID   string    `json:"listing_id"`
	DonorID     string    `json:"donor_id"`
	RecipientID string    `json:"recipient_id"`
	Score       float64   `json:"score"` // 0..1
	DistanceKm  float64   `json:"distance_km"`
	RouteETAMin float64   `json:"route_eta_min"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Message struct {
	ID        string    `json:"_id"`
	MatchID   string    `json:"match_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type BlogPost struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// FreshnessReading is one sample from the simulated sensor feed.
type FreshnessReading struct {
	ListingID    string    `json:"listing_id"`
	Freshness    int       `json:"freshness"`
	TemperatureC float64   `json:"temperature_c"`
	Humidity     int       `json:"humidity"`
	Timestamp    time.Time `json:"timestamp"`
}
