package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// VerifyRoles enforces role-based access control. It must be mounted after
// VerifyToken.
func VerifyRoles(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok || id.Role == "" {
				return domain.NewAuthenticationError("User not authenticated")
			}
			if _, ok := allowed[id.Role]; !ok {
				return domain.NewAuthorizationError("User not authorized to access this resource")
			}
			return next(c)
		}
	}
}
