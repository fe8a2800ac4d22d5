package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/creatorspace/community-api/internal/core/ports"
)

// UserHandler serves the profile routes. All routes require VerifyToken.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Profile handles GET /api/userprofile.
//
// @Summary      Get the caller's profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/userprofile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	user, err := h.service.Profile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update handles PUT /userprofile/:id.
//
// @Summary      Update a profile
// @Description  Users may update their own profile; only admins may change roles.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "User ID"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /userprofile/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	payload, err := jsonPayload(c)
	if err != nil {
		return err
	}

	if err := h.service.Update(c.Request().Context(), id, c.Param("id"), payload); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User profile updated successfully!"})
}

// Delete handles DELETE /userprofile/:id.
//
// @Summary      Delete a profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /userprofile/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User profile deleted successfully!"})
}
