package handler

import (
	"errors"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/creatorspace/community-api/internal/api/middleware"
	"github.com/creatorspace/community-api/internal/core/domain"
)

// caller returns the identity injected by the auth middleware. Presence
// proves VerifyToken ran on the route.
func caller(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.NewAuthenticationError("User not authenticated")
	}
	return id, nil
}

// jsonPayload decodes the request body into a generic map. An empty body
// yields an empty map so validation reports the missing fields.
func jsonPayload(c echo.Context) (map[string]any, error) {
	payload := map[string]any{}
	if c.Request().ContentLength == 0 {
		return payload, nil
	}
	if err := c.Echo().JSONSerializer.Deserialize(c, &payload); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, domain.NewValidationError("Invalid JSON payload", nil)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

// messageResponse is the body of operations that return no resource.
type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse documents the error envelope written by the error handler.
type errorResponse struct {
	Error struct {
		Message string            `json:"message"`
		Code    string            `json:"code"`
		Fields  map[string]string `json:"fields,omitempty"`
		Stack   string            `json:"stack,omitempty"`
	} `json:"error"`
}
