package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
	"github.com/creatorspace/community-api/internal/core/validation"
)

// DefaultMaxMediaBytes caps a single upload.
const DefaultMaxMediaBytes int64 = 100 << 20

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

var allowedMedia = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
}

const maxTags = 20

type PostService struct {
	posts    ports.PostRepository
	media    ports.MediaStore
	cleaner  ports.MediaCleaner
	maxBytes int64
	log      zerolog.Logger
}

func NewPostService(posts ports.PostRepository, media ports.MediaStore, cleaner ports.MediaCleaner, maxBytes int64, log zerolog.Logger) *PostService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxMediaBytes
	}
	return &PostService{posts: posts, media: media, cleaner: cleaner, maxBytes: maxBytes, log: log}
}

// Create validates the post, stores its media and then the post record.
// The media file is removed again if the record cannot be stored.
func (s *PostService) Create(ctx context.Context, caller domain.Identity, in ports.CreatePostInput) (*ports.CreatedPost, error) {
	errs := map[string]string{}
	var mediaMessage, mime string
	var content io.Reader
	switch {
	case in.Media == nil || in.Media.Content == nil:
		mediaMessage, errs["media"] = "Media file is required", "Media file is required"
	case in.Media.Size > s.maxBytes:
		mediaMessage, errs["media"] = "File too large", fmt.Sprintf("File size exceeds %d bytes", s.maxBytes)
	default:
		var err error
		mime, content, err = sniff(in.Media.Content)
		if err != nil {
			mediaMessage, errs["media"] = "Could not read media file", "Could not read media file"
		} else if !allowedMedia[mime] {
			mediaMessage, errs["media"] = "Invalid file type",
				"Only images (JPEG, PNG, GIF, WEBP) and videos (MP4, MOV, AVI) are allowed"
		}
	}

	fields := in.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	if t, ok := fields["title"].(string); ok {
		fields["title"] = strings.TrimSpace(t)
	}
	schema := validation.PostSchema()
	if err := validation.Validate(fields, schema); err != nil {
		de, ok := domain.AsError(err)
		if !ok {
			return nil, err
		}
		for k, v := range de.Fields() {
			errs[k] = v
		}
	}

	tags := normalizeTags(in.Tags)
	if len(tags) > maxTags {
		errs["tags"] = fmt.Sprintf("At most %d tags are allowed", maxTags)
	}

	if len(errs) > 0 {
		// A lone media problem keeps its specific message.
		message := "Validation failed"
		if _, ok := errs["media"]; ok && len(errs) == 1 {
			message = mediaMessage
		}
		return nil, domain.NewValidationError(message, errs)
	}
	validation.ApplyDefaults(fields, schema)

	mediaURL, err := s.media.Save(ctx, caller.ID, in.Media.Filename, mime, content)
	if err != nil {
		if _, ok := domain.AsError(err); ok {
			return nil, err
		}
		s.log.Error().Err(err).Str("user_id", caller.ID).Msg("failed to store media")
		return nil, domain.NewDatabaseError("Failed to store media file", err)
	}

	now := time.Now().UTC()
	post := &domain.Post{
		UserID:      caller.ID,
		Title:       stringField(fields, "title"),
		Description: stringField(fields, "description"),
		MediaType:   domain.MediaTypeFromMIME(mime),
		MediaURL:    mediaURL,
		Visibility:  domain.Visibility(stringField(fields, "visibility")),
		Tags:        tags,
		TagCount:    len(tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := WithStorage(func() (string, error) {
		return s.posts.Create(ctx, post)
	})
	if err != nil {
		s.cleaner.Enqueue(mediaURL)
		return nil, err
	}

	s.log.Info().Str("post_id", id).Str("user_id", caller.ID).Str("media_type", string(post.MediaType)).Msg("post created")
	return &ports.CreatedPost{PostID: id, Message: "Post created successfully", MediaURL: mediaURL, MediaType: post.MediaType}, nil
}

// Feed lists public posts, newest first unless popularity is requested.
func (s *PostService) Feed(ctx context.Context, q ports.FeedQuery) (*ports.PostPage, error) {
	filter, err := feedFilter(q)
	if err != nil {
		return nil, err
	}
	page, limit := normalizePage(q.Page, q.Limit)
	filter.Offset = pageOffset(page, limit)
	filter.Limit = limit

	var total int64
	posts, err := WithStorage(func() ([]*domain.Post, error) {
		p, n, err := s.posts.Feed(ctx, filter)
		total = n
		return p, err
	})
	if err != nil {
		return nil, err
	}
	return &ports.PostPage{Posts: nonNil(posts), Pagination: newPagination(page, limit, total)}, nil
}

// Get returns a post that is public or owned by the caller. Other posts
// read as not found.
func (s *PostService) Get(ctx context.Context, caller domain.Identity, postID string) (*domain.Post, error) {
	return WithStorage(func() (*domain.Post, error) {
		p, err := s.posts.FindByID(ctx, postID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("Post not found")
		}
		if err != nil {
			return nil, err
		}
		if p.Visibility != domain.VisibilityPublic && !p.OwnedBy(caller.ID) {
			return nil, domain.NewNotFoundError("Post not found")
		}
		return p, nil
	})
}

// Delete removes the caller's own post and schedules its media for removal.
func (s *PostService) Delete(ctx context.Context, caller domain.Identity, postID string) error {
	var mediaURL string
	err := exec(func() error {
		p, err := s.posts.FindByID(ctx, postID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewNotFoundError("Post not found")
		}
		if err != nil {
			return err
		}
		if !p.OwnedBy(caller.ID) {
			return domain.NewAuthorizationError("You can only delete your own posts")
		}
		mediaURL = p.MediaURL
		err = s.posts.Delete(ctx, postID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewNotFoundError("Post not found")
		}
		return err
	})
	if err != nil {
		return err
	}

	if mediaURL != "" {
		s.cleaner.Enqueue(mediaURL)
	}
	s.log.Info().Str("post_id", postID).Str("user_id", caller.ID).Msg("post deleted")
	return nil
}

// ListByUser returns a user's public posts.
func (s *PostService) ListByUser(ctx context.Context, userID string, page, limit int) (*ports.PostPage, error) {
	page, limit = normalizePage(page, limit)

	var total int64
	posts, err := WithStorage(func() ([]*domain.Post, error) {
		p, n, err := s.posts.ListByUser(ctx, userID, domain.VisibilityPublic, pageOffset(page, limit), limit)
		total = n
		return p, err
	})
	if err != nil {
		return nil, err
	}
	return &ports.PostPage{Posts: nonNil(posts), Pagination: newPagination(page, limit, total)}, nil
}

func feedFilter(q ports.FeedQuery) (ports.FeedFilter, error) {
	filter := ports.FeedFilter{Visibility: domain.VisibilityPublic, Sort: domain.SortNewest}
	errs := map[string]string{}

	switch q.FilterBy {
	case "", "all":
	default:
		if r := domain.Role(q.FilterBy); r.Valid() {
			filter.Role = r
		} else {
			errs["filter_by"] = "filter_by must be 'all' or a valid role"
		}
	}

	switch domain.MediaType(q.MediaType) {
	case "", "all":
	case domain.MediaPhoto, domain.MediaVideo, domain.MediaText:
		filter.MediaType = domain.MediaType(q.MediaType)
	default:
		errs["media_type"] = "media_type must be one of: photo, video, text, all"
	}

	switch domain.FeedSort(q.Sort) {
	case "", domain.SortNewest:
	case domain.SortPopular:
		filter.Sort = domain.SortPopular
	default:
		errs["sort"] = "sort must be one of: newest, popular"
	}

	if len(errs) > 0 {
		return filter, domain.NewValidationError("Validation failed", errs)
	}
	return filter, nil
}

// sniff detects the MIME type from the head of r and returns a reader that
// still yields the full content.
func sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}

func normalizeTags(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func nonNil(posts []*domain.Post) []*domain.Post {
	if posts == nil {
		return []*domain.Post{}
	}
	return posts
}
