package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/example/connectfood/internal/models"
)

// PostgresStore implements Store on top of database/sql + lib/pq.
// Schema lives in migrations/001_create_core.sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }

func (p *PostgresStore) CreateAccount(ctx context.Context, a *models.Account) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	var lat, lng sql.NullFloat64
	if a.Location != nil {
		lat = sql.NullFloat64{Float64: a.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: a.Location.Lng, Valid: true}
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO accounts(id, name, email, password, role, phone, preferred_type, lat, lng, is_active)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.Name, a.Email, a.Password, a.Role, a.Phone, a.PreferredType, lat, lng, a.Active)
	return a.ID, err
}

func (p *PostgresStore) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, role, phone, preferred_type, lat, lng, is_active
		 FROM accounts WHERE lower(email) = lower($1)`, email)
	return scanAccount(row)
}

func (p *PostgresStore) ActiveRecipients(ctx context.Context) ([]models.Account, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, email, password, role, phone, preferred_type, lat, lng, is_active
		 FROM accounts WHERE role = $1 AND is_active ORDER BY id`, models.RoleRecipient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (*models.Account, error) {
	var a models.Account
	var lat, lng sql.NullFloat64
	err := r.Scan(&a.ID, &a.Name, &a.Email, &a.Password, &a.Role, &a.Phone, &a.PreferredType, &lat, &lng, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		a.Location = &models.Coord{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &a, nil
}

func (p *PostgresStore) CreateListing(ctx context.Context, l *models.Listing) (string, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO listings(id, donor_id, title, description, type, quantity, unit, lat, lng, expires_at, status, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		l.ID, l.DonorID, l.Title, l.Description, l.Type, l.Quantity, l.Unit,
		l.Location.Lat, l.Location.Lng, l.ExpiresAt, l.Status, l.CreatedAt)
	return l.ID, err
}

func (p *PostgresStore) Listings(ctx context.Context) ([]models.Listing, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, donor_id, title, description, type, quantity, unit, lat, lng, expires_at, status, created_at
		 FROM listings ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (p *PostgresStore) ListingByID(ctx context.Context, id string) (*models.Listing, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, donor_id, title, description, type, quantity, unit, lat, lng, expires_at, status, created_at
		 FROM listings WHERE id = $1`, id)
	return scanListing(row)
}

func scanListing(r rowScanner) (*models.Listing, error) {
	var l models.Listing
	var expires sql.NullTime
	err := r.Scan(&l.ID, &l.DonorID, &l.Title, &l.Description, &l.Type, &l.Quantity, &l.Unit,
		&l.Location.Lat, &l.Location.Lng, &expires, &l.Status, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		l.ExpiresAt = &t
	}
	return &l, nil
}

func (p *PostgresStore) CreateMatch(ctx context.Context, m *models.Match) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO matches(id, listing_id, donor_id, recipient_id, score, distance_km, route_eta_min, status, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.ListingID, m.DonorID, m.RecipientID, m.Score, m.DistanceKm, m.RouteETAMin, m.Status, m.CreatedAt)
	return m.ID, err
}

func (p *PostgresStore) Matches(ctx context.Context, userID string) ([]models.Match, error) {
	query := `SELECT id, listing_id, donor_id, recipient_id, score, distance_km, route_eta_min, status, created_at
		 FROM matches`
	args := []any{}
	if userID != "" {
		query += ` WHERE donor_id = $1 OR recipient_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.ListingID, &m.DonorID, &m.RecipientID, &m.Score,
			&m.DistanceKm, &m.RouteETAMin, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CreateMessage(ctx context.Context, m *models.Message) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO messages(id, match_id, sender_id, content, created_at) VALUES($1,$2,$3,$4,$5)`,
		m.ID, m.MatchID, m.SenderID, m.Content, m.CreatedAt)
	return m.ID, err
}

func (p *PostgresStore) MessagesByMatch(ctx context.Context, matchID string) ([]models.Message, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, match_id, sender_id, content, created_at FROM messages
		 WHERE match_id = $1 ORDER BY created_at`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CreateBlogPost(ctx context.Context, post *models.BlogPost) (string, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO blog_posts(id, title, excerpt, body, tags, created_at) VALUES($1,$2,$3,$4,$5,$6)`,
		post.ID, post.Title, post.Excerpt, post.Body, pq.Array(post.Tags), post.CreatedAt)
	return post.ID, err
}

func (p *PostgresStore) BlogPosts(ctx context.Context) ([]models.BlogPost, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, title, excerpt, body, tags, created_at FROM blog_posts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.BlogPost
	for rows.Next() {
		var post models.BlogPost
		if err := rows.Scan(&post.ID, &post.Title, &post.Excerpt, &post.Body,
			pq.Array(&post.Tags), &post.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, rows.Err()
}
