package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

type csrfResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// CSRFToken handles GET /csrf-token. The CSRF middleware must run on the
// route so the token is present in context.
//
// @Summary      Issue a CSRF token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  csrfResponse
// @Router       /csrf-token [get]
func CSRFToken(c echo.Context) error {
	token, _ := c.Get(echomiddleware.DefaultCSRFConfig.ContextKey).(string)
	return c.JSON(http.StatusOK, csrfResponse{CSRFToken: token})
}
