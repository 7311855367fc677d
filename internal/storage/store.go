package storage

import (
	"context"
	"errors"

	"github.com/example/connectfood/internal/models"
)

// ErrNotFound is returned when a record id does not resolve.
var ErrNotFound = errors.New("record not found")

// Store is the record-store dependency shared by the search and matcher
// pipelines and the HTTP layer. It is passed in explicitly so tests can
// substitute the in-memory implementation.
type Store interface {
	CreateAccount(ctx context.Context, a *models.Account) (string, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// ActiveRecipients returns accounts with role=recipient and the
	// active flag set.
	ActiveRecipients(ctx context.Context) ([]models.Account, error)

	CreateListing(ctx context.Context, l *models.Listing) (string, error)
	Listings(ctx context.Context) ([]models.Listing, error)
	ListingByID(ctx context.Context, id string) (*models.Listing, error)

	CreateMatch(ctx context.Context, m *models.Match) (string, error)
	// Matches returns match records newest-first. A non-empty userID
	// restricts the result to matches where the user is donor or recipient.
	Matches(ctx context.Context, userID string) ([]models.Match, error)

	CreateMessage(ctx context.Context, m *models.Message) (string, error)
	// MessagesByMatch returns a match's messages oldest-first.
	MessagesByMatch(ctx context.Context, matchID string) ([]models.Message, error)

	CreateBlogPost(ctx context.Context, p *models.BlogPost) (string, error)
	BlogPosts(ctx context.Context) ([]models.BlogPost, error)
}
