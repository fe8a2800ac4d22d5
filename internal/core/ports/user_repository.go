package ports

import (
	"context"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// UserRepository persists user profiles. Implementations return the
// domain storage signals (ErrNotFound, ErrUniqueViolation,
// ErrReferenceViolation) wrapped in their own errors.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) error
	Delete(ctx context.Context, id string) error
}
