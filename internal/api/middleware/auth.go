package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
)

// TokenCookie is the cookie that carries the session token.
const TokenCookie = "token"

const identityKey = "identity"

// VerifyToken authenticates the request and injects the caller's identity
// into context. The token cookie takes precedence over the Authorization
// header.
func VerifyToken(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c)
			if raw == "" {
				return domain.NewAuthenticationError("Missing or invalid authorization header")
			}

			id, err := verifier.Verify(raw)
			if err != nil {
				return err
			}

			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity injected by VerifyToken.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	if !ok || id.ID == "" {
		return domain.Identity{}, false
	}
	return id, true
}

func tokenFromRequest(c echo.Context) string {
	if ck, err := c.Cookie(TokenCookie); err == nil && ck.Value != "" {
		return ck.Value
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
