package ports

import (
	"context"
	"io"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// MediaUpload is the file part of a post creation request.
type MediaUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// CreatePostInput carries a new post. Fields holds the text form values
// (title, description, visibility).
type CreatePostInput struct {
	Fields map[string]any
	Tags   []string
	Media  *MediaUpload
}

// CreatedPost is returned after a post is stored.
type CreatedPost struct {
	PostID    string           `json:"postId"`
	Message   string           `json:"message"`
	MediaURL  string           `json:"mediaUrl"`
	MediaType domain.MediaType `json:"mediaType"`
}

// FeedQuery is the parsed feed request.
type FeedQuery struct {
	Page      int
	Limit     int
	FilterBy  string
	MediaType string
	Sort      string
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	HasMore    bool  `json:"hasMore"`
	TotalPages int   `json:"totalPages"`
}

// PostPage is a paginated list of posts.
type PostPage struct {
	Posts      []*domain.Post `json:"posts"`
	Pagination Pagination     `json:"pagination"`
}

// PostService implements the post use cases.
type PostService interface {
	Create(ctx context.Context, caller domain.Identity, in CreatePostInput) (*CreatedPost, error)
	Feed(ctx context.Context, q FeedQuery) (*PostPage, error)
	Get(ctx context.Context, caller domain.Identity, postID string) (*domain.Post, error)
	Delete(ctx context.Context, caller domain.Identity, postID string) error
	ListByUser(ctx context.Context, userID string, page, limit int) (*PostPage, error)
}
