package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/connectfood/internal/cache"
	"github.com/example/connectfood/internal/config"
	"github.com/example/connectfood/internal/feed"
	"github.com/example/connectfood/internal/ingest"
	"github.com/example/connectfood/internal/matcher"
	"github.com/example/connectfood/internal/models"
	"github.com/example/connectfood/internal/notify"
	"github.com/example/connectfood/internal/observability"
	"github.com/example/connectfood/internal/payments"
	"github.com/example/connectfood/internal/search"
	"github.com/example/connectfood/internal/storage"
)

type Server struct {
	Store     storage.Store
	Search    *search.Service
	Matcher   *matcher.Service
	Snapshots cache.Snapshots
	Feed      *feed.Feed
	Payments  *payments.StripeClient // nil when no API key is configured

	DefaultRadiusKm float64

	logger *slog.Logger
	mux    *mux.Router
}

// NewServer wires the service graph from config: postgres or in-memory
// store, redis or in-memory snapshots, optional kafka producer, optional
// match webhook, optional stripe.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	var store storage.Store
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		store = ps
	} else {
		store = storage.NewMemoryStore()
	}

	var snapshots cache.Snapshots
	if cfg.RedisAddr != "" {
		snapshots = cache.NewRedisSnapshots(cfg.RedisAddr, cfg.RedisPassword)
	} else {
		snapshots = cache.NewMemorySnapshots()
	}

	var producer feed.ReadingPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	searchSvc := search.NewService(store)
	searchSvc.MaxResults = cfg.SearchMaxResults

	matchSvc := matcher.NewService(store, logger)
	matchSvc.SpeedKmh = cfg.MatcherSpeedKmh
	matchSvc.TopK = cfg.MatcherTopK
	if cfg.NotifyWebhookURL != "" {
		matchSvc.Notify = notify.NewWebhookNotifier(cfg.NotifyWebhookURL)
	}

	var stripeClient *payments.StripeClient
	if cfg.StripeAPIKey != "" {
		stripeClient = payments.NewStripeClient(cfg.StripeAPIKey)
	}

	s := &Server{
		Store:           store,
		Search:          searchSvc,
		Matcher:         matchSvc,
		Snapshots:       snapshots,
		Feed:            &feed.Feed{Snapshots: snapshots, Producer: producer, Logger: logger},
		Payments:        stripeClient,
		DefaultRadiusKm: cfg.SearchRadiusKm,
		logger:          logger,
		mux:             mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s, nil
}

// NewTestServer builds a server over the provided store with in-memory
// collaborators, for handler tests.
func NewTestServer(store storage.Store, logger *slog.Logger) *Server {
	snapshots := cache.NewMemorySnapshots()
	s := &Server{
		Store:           store,
		Search:          search.NewService(store),
		Matcher:         matcher.NewService(store, logger),
		Snapshots:       snapshots,
		Feed:            &feed.Feed{Snapshots: snapshots, Logger: logger},
		DefaultRadiusKm: search.DefaultRadiusKm,
		logger:          logger,
		mux:             mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	s.mux.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	s.mux.HandleFunc("/api/listings", s.handleCreateListing).Methods(http.MethodPost)
	s.mux.HandleFunc("/api/listings", s.handleNearbyListings).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/listings/{id}/freshness", s.handleFreshnessSnapshot).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/match", s.handleMatch).Methods(http.MethodPost)
	s.mux.HandleFunc("/api/matches", s.handleMatches).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/message", s.handleSendMessage).Methods(http.MethodPost)
	s.mux.HandleFunc("/api/messages", s.handleMessages).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/blog", s.handleBlog).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/contributions", s.handleContribution).Methods(http.MethodPost)
	s.mux.HandleFunc("/ws/freshness/{listing_id}", s.handleFreshnessFeed)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"name": "ConnectFood", "message": "Backend running"})
}

type registerRequest struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	Role          string   `json:"role"`
	Phone         string   `json:"phone"`
	PreferredType string   `json:"preferred_type"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}
	if req.Role != models.RoleDonor && req.Role != models.RoleRecipient {
		http.Error(w, "role must be donor or recipient", http.StatusBadRequest)
		return
	}
	loc, ok := optionalCoord(req.Lat, req.Lng)
	if !ok {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}
	// naive uniqueness check
	if _, err := s.Store.AccountByEmail(r.Context(), req.Email); err == nil {
		http.Error(w, "email already registered", http.StatusBadRequest)
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	acc := models.Account{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          req.Role,
		Phone:         req.Phone,
		PreferredType: req.PreferredType,
		Location:      loc,
		Active:        true,
	}
	id, err := s.Store.CreateAccount(r.Context(), &acc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"_id": id, "email": acc.Email, "role": acc.Role})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	acc, err := s.Store.AccountByEmail(r.Context(), req.Email)
	if err != nil || acc.Password != req.Password {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acc})
}

type createListingRequest struct {
	DonorID          string  `json:"donor_id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Type             string  `json:"type"`
	Quantity         float64 `json:"quantity"`
	Unit             string  `json:"unit"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	ExpiresInMinutes *int    `json:"expires_in_minutes"`
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !validCoord(req.Lat, req.Lng) {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}
	if req.Unit == "" {
		req.Unit = "servings"
	}
	minutes := 180
	if req.ExpiresInMinutes != nil {
		minutes = *req.ExpiresInMinutes
	}
	expires := time.Now().UTC().Add(time.Duration(minutes) * time.Minute)
	l := models.Listing{
		DonorID:     req.DonorID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Location:    models.Coord{Lat: req.Lat, Lng: req.Lng},
		ExpiresAt:   &expires,
		Status:      models.ListingAvailable,
	}
	id, err := s.Store.CreateListing(r.Context(), &l)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	observability.ListingsCreated.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"_id": id})
}

func (s *Server) handleNearbyListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
	if err1 != nil || err2 != nil || !validCoord(lat, lng) {
		http.Error(w, "invalid lat/lng", http.StatusBadRequest)
		return
	}
	radius := s.DefaultRadiusKm
	if v := q.Get("radius_km"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid radius_km", http.StatusBadRequest)
			return
		}
		radius = f
	}
	observability.SearchesTotal.Inc()
	res, err := s.Search.Nearby(r.Context(), models.Coord{Lat: lat, Lng: lng}, radius, time.Now().UTC())
	if err != nil {
		// degrade: a store outage reads as "nothing nearby"
		s.logger.Error("nearby search degraded", "error", err)
		writeJSON(w, http.StatusOK, search.Result{Items: []search.ListingDistance{}})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type matchRequest struct {
	ListingID string `json:"listing_id"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	matches, err := s.Matcher.Match(r.Context(), req.ListingID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}
	if err != nil {
		// degrade: anything besides an unknown listing yields no matches
		s.logger.Error("match degraded", "listing_id", req.ListingID, "error", err)
		matches = []models.Match{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.Matches(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		s.logger.Error("match listing degraded", "error", err)
		items = []models.Match{}
	}
	if len(items) > 100 {
		items = items[:100]
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type sendMessageRequest struct {
	MatchID  string `json:"match_id"`
	SenderID string `json:"sender_id"`
	Content  string `json:"content"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.MatchID == "" || req.Content == "" {
		http.Error(w, "match_id and content are required", http.StatusBadRequest)
		return
	}
	m := models.Message{MatchID: req.MatchID, SenderID: req.SenderID, Content: req.Content}
	id, err := s.Store.CreateMessage(r.Context(), &m)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"_id": id})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("match_id")
	if matchID == "" {
		http.Error(w, "match_id is required", http.StatusBadRequest)
		return
	}
	items, err := s.Store.MessagesByMatch(r.Context(), matchID)
	if err != nil {
		s.logger.Error("message listing degraded", "error", err)
		items = []models.Message{}
	}
	if len(items) > 200 {
		items = items[:200]
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	posts, err := s.Store.BlogPosts(r.Context())
	if err != nil {
		s.logger.Error("blog listing degraded", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"items": []models.BlogPost{}})
		return
	}
	if len(posts) == 0 {
		posts = s.seedBlog(r)
	}
	if len(posts) > 20 {
		posts = posts[:20]
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": posts})
}

// seedBlog populates sample content on first read, matching the
// prototype behavior of shipping with a non-empty blog.
func (s *Server) seedBlog(r *http.Request) []models.BlogPost {
	demo := []models.BlogPost{
		{Title: "AI for Food Redistribution", Excerpt: "How ML reduces waste", Body: "...", Tags: []string{"ai", "sustainability"}},
		{Title: "Food Safety 101", Excerpt: "Best practices for handling surplus", Body: "...", Tags: []string{"safety"}},
	}
	out := make([]models.BlogPost, 0, len(demo))
	for i := range demo {
		if _, err := s.Store.CreateBlogPost(r.Context(), &demo[i]); err != nil {
			s.logger.Error("blog seed failed", "error", err)
			continue
		}
		out = append(out, demo[i])
	}
	return out
}

func (s *Server) handleFreshnessSnapshot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	reading, err := s.Snapshots.Latest(r.Context(), id)
	if errors.Is(err, cache.ErrNoSnapshot) {
		http.Error(w, "no telemetry for listing", http.StatusNotFound)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

type contributionRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	CustomerID  string `json:"customer_id"`
}

func (s *Server) handleContribution(w http.ResponseWriter, r *http.Request) {
	if s.Payments == nil {
		http.Error(w, "payments not configured", http.StatusServiceUnavailable)
		return
	}
	var req contributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.AmountCents <= 0 {
		http.Error(w, "amount_cents must be positive", http.StatusBadRequest)
		return
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "usd"
	}
	id, err := s.Payments.Contribute(r.Context(), req.AmountCents, currency, req.CustomerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"payment_intent_id": id})
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (s *Server) handleFreshnessFeed(w http.ResponseWriter, r *http.Request) {
	listingID := mux.Vars(r)["listing_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	defer conn.Close()
	s.Feed.Stream(r.Context(), conn, listingID)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func validCoord(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func optionalCoord(lat, lng *float64) (*models.Coord, bool) {
	if lat == nil || lng == nil {
		return nil, true
	}
	if !validCoord(*lat, *lng) {
		return nil, false
	}
	return &models.Coord{Lat: *lat, Lng: *lng}, true
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
