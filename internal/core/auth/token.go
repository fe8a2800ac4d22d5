package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// ErrMissingSecret is returned when the token service is built without a
// signing key.
var ErrMissingSecret = errors.New("auth: token signing secret is empty")

const DefaultTokenTTL = time.Hour

// Claims is the JWT payload.
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. The secret is read
// only after construction, so one instance is shared by all requests.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a TokenService.
type Option func(*TokenService)

// WithClock replaces the time source, used by tests to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService refuses to build without a secret.
func NewTokenService(secret string, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL is the default lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for id. A non-positive ttl uses the service default.
func (s *TokenService) Issue(id domain.Identity, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		UserID:   id.ID,
		Username: id.Username,
		Role:     string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := WithToken(func() (string, error) {
		return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	}, "Failed to issue token")
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry and returns the embedded
// identity. Every failure is an AuthenticationError.
func (s *TokenService) Verify(raw string) (domain.Identity, error) {
	claims, err := WithToken(func() (*Claims, error) {
		c := &Claims{}
		_, err := jwt.ParseWithClaims(raw, c, s.keyFunc,
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(s.now),
		)
		return c, err
	}, "Failed to authenticate token")
	if err != nil {
		return domain.Identity{}, err
	}

	role := domain.Role(claims.Role)
	if claims.UserID == "" || !role.Valid() {
		return domain.Identity{}, domain.NewAuthenticationError("Invalid token")
	}
	return domain.Identity{ID: claims.UserID, Username: claims.Username, Role: role}, nil
}

func (s *TokenService) keyFunc(*jwt.Token) (any, error) {
	return s.secret, nil
}

// WithToken runs op and converts any failure into an AuthenticationError.
// Expired and invalid tokens get fixed messages; everything else uses
// fallback.
func WithToken[T any](op func() (T, error), fallback string) (T, error) {
	v, err := op()
	if err == nil {
		return v, nil
	}
	var zero T
	if de, ok := domain.AsError(err); ok && de.Kind() == domain.KindAuthentication {
		return zero, de
	}
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return zero, domain.NewTokenError("Token expired", err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return zero, domain.NewTokenError("Invalid token", err)
	default:
		return zero, domain.NewTokenError(fallback, err)
	}
}
