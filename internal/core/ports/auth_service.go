package ports

import (
	"context"
	"time"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// Session is the result of a successful login.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService creates accounts and checks credentials. Input maps are raw
// decoded request bodies; validation happens inside the service.
type AuthService interface {
	Register(ctx context.Context, payload map[string]any) (*domain.User, error)
	Login(ctx context.Context, payload map[string]any) (*Session, error)
}

// TokenVerifier turns a raw token into an Identity.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}
