package ports

import (
	"context"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// FeedFilter carries the feed query. Empty Role or MediaType means "all".
type FeedFilter struct {
	Visibility domain.Visibility
	Role       domain.Role
	MediaType  domain.MediaType
	Sort       domain.FeedSort
	Offset     int
	Limit      int
}

// PostRepository persists posts. Username and Role on returned posts are
// joined from the author's profile.
type PostRepository interface {
	// Create fails with domain.ErrReferenceViolation when the author does
	// not exist.
	Create(ctx context.Context, post *domain.Post) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	Feed(ctx context.Context, filter FeedFilter) ([]*domain.Post, int64, error)
	ListByUser(ctx context.Context, userID string, visibility domain.Visibility, offset, limit int) ([]*domain.Post, int64, error)
	Delete(ctx context.Context, id string) error
}
