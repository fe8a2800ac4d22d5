package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/creatorspace/community-api/internal/api/metrics"
	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
)

// PostHandler serves the post routes.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

type feedRequest struct {
	Page      int    `query:"page" validate:"omitempty,min=1"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	FilterBy  string `query:"filter_by" validate:"omitempty,role|eq=all"`
	MediaType string `query:"media_type" validate:"omitempty,oneof=photo video text all"`
	Sort      string `query:"sort" validate:"omitempty,oneof=newest popular"`
}

type pageRequest struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// Create handles POST /api/posts.
//
// @Summary      Create a media post
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        media        formData  file    true   "Image or video, at most 100MB"
// @Param        title        formData  string  true   "Title"
// @Param        description  formData  string  false  "Description"
// @Param        visibility   formData  string  false  "public, private or friends"
// @Param        tags         formData  string  false  "Comma separated tags"
// @Success      201          {object}  ports.CreatedPost
// @Failure      400          {object}  errorResponse
// @Failure      401          {object}  errorResponse
// @Failure      413          {object}  errorResponse
// @Router       /api/posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	in := ports.CreatePostInput{Fields: map[string]any{}}
	for _, key := range []string{"title", "description", "visibility"} {
		if v := c.FormValue(key); v != "" {
			in.Fields[key] = v
		}
	}
	if form, err := c.MultipartForm(); err == nil {
		in.Tags = splitTags(form.Value["tags"])
	}

	fh, err := c.FormFile("media")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return domain.NewValidationError("Invalid multipart payload", map[string]string{"media": "Could not read media file"})
	default:
		f, err := fh.Open()
		if err != nil {
			return domain.NewValidationError("Invalid multipart payload", map[string]string{"media": "Could not read media file"})
		}
		defer f.Close()
		in.Media = &ports.MediaUpload{Filename: fh.Filename, Size: fh.Size, Content: f}
	}

	out, err := h.service.Create(c.Request().Context(), id, in)
	if err != nil {
		return err
	}

	metrics.PostsCreatedTotal.WithLabelValues(string(out.MediaType)).Inc()
	metrics.MediaUploadBytes.Observe(float64(in.Media.Size))
	return c.JSON(http.StatusCreated, out)
}

// Feed handles GET /api/posts/feed.
//
// @Summary      List public posts
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        page        query     int     false  "Page, from 1"
// @Param        limit       query     int     false  "Page size, at most 100"
// @Param        filter_by   query     string  false  "Author role or 'all'"
// @Param        media_type  query     string  false  "photo, video, text or all"
// @Param        sort        query     string  false  "newest or popular"
// @Success      200         {object}  ports.PostPage
// @Failure      400         {object}  errorResponse
// @Router       /api/posts/feed [get]
func (h *PostHandler) Feed(c echo.Context) error {
	var req feedRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("Invalid query parameters", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	page, err := h.service.Feed(c.Request().Context(), ports.FeedQuery{
		Page:      req.Page,
		Limit:     req.Limit,
		FilterBy:  req.FilterBy,
		MediaType: req.MediaType,
		Sort:      req.Sort,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /api/posts/:id.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.Post
// @Failure      404  {object}  errorResponse
// @Router       /api/posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	post, err := h.service.Get(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /api/posts/:id.
//
// @Summary      Delete own post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Post deleted successfully"})
}

// ListByUser handles GET /api/posts/user/:userId.
//
// @Summary      List a user's public posts
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true   "User ID"
// @Param        page    query     int     false  "Page, from 1"
// @Param        limit   query     int     false  "Page size, at most 100"
// @Success      200     {object}  ports.PostPage
// @Failure      400     {object}  errorResponse
// @Router       /api/posts/user/{userId} [get]
func (h *PostHandler) ListByUser(c echo.Context) error {
	var req pageRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return domain.NewValidationError("Invalid query parameters", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	page, err := h.service.ListByUser(c.Request().Context(), c.Param("userId"), req.Page, req.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// splitTags accepts repeated fields and comma separated lists.
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
