package ports

import (
	"context"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// UserService manages profiles on behalf of an authenticated caller.
type UserService interface {
	Profile(ctx context.Context, caller domain.Identity) (*domain.User, error)
	Update(ctx context.Context, caller domain.Identity, targetID string, payload map[string]any) error
	Delete(ctx context.Context, caller domain.Identity, targetID string) error
}
