package domain

import (
	"strings"
	"time"
)

// MediaType is derived from the uploaded file, never from client input.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
	MediaText  MediaType = "text"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityFriends Visibility = "friends"
)

// FeedSort orders feed results.
type FeedSort string

const (
	SortNewest  FeedSort = "newest"
	SortPopular FeedSort = "popular"
)

// Post is a media post. Username and Role are joined from the author.
type Post struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Username      string     `json:"username"`
	Role          Role       `json:"role"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	MediaType     MediaType  `json:"media_type"`
	MediaURL      string     `json:"media_url"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	Visibility    Visibility `json:"visibility"`
	Tags          []string   `json:"tags,omitempty"`
	LikesCount    int64      `json:"likes_count"`
	CommentsCount int64      `json:"comments_count"`
	TagCount      int        `json:"tag_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OwnedBy reports whether userID authored the post.
func (p *Post) OwnedBy(userID string) bool {
	return p.UserID == userID
}

// MediaTypeFromMIME maps a MIME type to the post media type.
func MediaTypeFromMIME(mime string) MediaType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return MediaPhoto
	case strings.HasPrefix(mime, "video/"):
		return MediaVideo
	default:
		return MediaText
	}
}
