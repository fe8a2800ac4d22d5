package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/creatorspace/community-api/internal/api/metrics"
	"github.com/creatorspace/community-api/internal/api/middleware"
	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
)

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Secure bool
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieOptions
}

func NewAuthHandler(authService ports.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role"`
	Message  string      `json:"message"`
}

// Register creates a new user account.
//
// @Summary      Create a user profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/create [post]
func (h *AuthHandler) Register(c echo.Context) error {
	payload, err := jsonPayload(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), payload)
	if err != nil {
		return err
	}

	metrics.UsersCreatedTotal.WithLabelValues(string(user.Role)).Inc()
	return c.JSON(http.StatusCreated, registerResponse{
		Message: "User profile created successfully!",
		UserID:  user.ID,
	})
}

// Login checks credentials and sets the session cookie. The token is never
// part of the response body.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	payload, err := jsonPayload(c)
	if err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), payload)
	if err != nil {
		if domain.IsKind(err, domain.KindAuthentication) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	c.SetCookie(h.sessionCookie(session.Token, session.ExpiresAt))
	u := session.User
	return c.JSON(http.StatusOK, loginResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Message:  "Login successful",
	})
}

// Logout clears the session cookie. Issued tokens stay valid until they
// expire.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, messageResponse{Message: "Successfully logged out"})
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	maxAge := int(time.Until(expires).Seconds())
	if value == "" || maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
