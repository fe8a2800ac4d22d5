package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
	"github.com/creatorspace/community-api/internal/core/validation"
)

// PasswordHasher abstracts the credential hasher.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// TokenIssuer abstracts token signing.
type TokenIssuer interface {
	Issue(id domain.Identity, ttl time.Duration) (string, time.Time, error)
}

const invalidCredentials = "Invalid username or password"

// AuthService implements account creation and login.
type AuthService struct {
	users     ports.UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	schema    validation.Schema
	dummyHash string
	log       zerolog.Logger
}

// NewAuthService builds the service. minPassword is the password length
// floor for new accounts.
func NewAuthService(users ports.UserRepository, hasher PasswordHasher, tokens TokenIssuer, minPassword int, log zerolog.Logger) *AuthService {
	// Compared against when the username is unknown so both login failure
	// paths pay for one bcrypt comparison.
	dummy, err := hasher.Hash("community-api-placeholder")
	if err != nil {
		log.Warn().Err(err).Msg("failed to precompute placeholder hash")
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		schema:    validation.CreateUserSchema(minPassword),
		dummyHash: dummy,
		log:       log,
	}
}

// Register validates payload, hashes the password and stores the account.
// A taken username surfaces as ConflictError.
func (s *AuthService) Register(ctx context.Context, payload map[string]any) (*domain.User, error) {
	if err := validation.Validate(payload, s.schema); err != nil {
		return nil, err
	}
	validation.ApplyDefaults(payload, s.schema)

	// Hash before touching storage.
	hash, err := s.hasher.Hash(stringField(payload, "password"))
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, domain.NewValidationError("Validation failed", map[string]string{
			"password": fmt.Sprintf("password must not exceed %d bytes", validation.PasswordMaxBytes),
		})
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     stringField(payload, "username"),
		Email:        stringField(payload, "email"),
		PasswordHash: hash,
		Role:         domain.Role(stringField(payload, "role")),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := WithStorage(func() (string, error) {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	user.ID = id

	s.log.Info().Str("user_id", id).Str("username", user.Username).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

// Login checks credentials and issues a session token. Unknown usernames
// and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, payload map[string]any) (*ports.Session, error) {
	if err := validation.Validate(payload, validation.LoginSchema()); err != nil {
		return nil, err
	}
	username := stringField(payload, "username")
	password := stringField(payload, "password")

	user, err := WithStorage(func() (*domain.User, error) {
		u, err := s.users.FindByUsername(ctx, username)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return u, err
	})
	if err != nil {
		return nil, err
	}

	if user == nil {
		s.hasher.Verify(password, s.dummyHash)
		return nil, domain.NewAuthenticationError(invalidCredentials)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.NewAuthenticationError(invalidCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(user.Identity(), 0)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("login succeeded")
	return &ports.Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
