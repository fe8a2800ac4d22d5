package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newTestPostService() (*PostService, *stubPostRepo, *stubMediaStore, *stubCleaner) {
	posts := newStubPostRepo()
	media := newStubMediaStore()
	cleaner := &stubCleaner{}
	return NewPostService(posts, media, cleaner, 1<<20, zerolog.Nop()), posts, media, cleaner
}

func pngUpload() *ports.MediaUpload {
	return &ports.MediaUpload{Filename: "cat.png", Size: int64(len(pngHeader)), Content: bytes.NewReader(pngHeader)}
}

func TestPostService_Create_Success(t *testing.T) {
	svc, posts, media, _ := newTestPostService()

	out, err := svc.Create(context.Background(), alice, ports.CreatePostInput{
		Fields: map[string]any{"title": "  Sunset  "},
		Tags:   []string{"sky", " sky", "", "orange"},
		Media:  pngUpload(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if out.PostID == "" || out.MediaURL == "" || out.MediaType != domain.MediaPhoto {
		t.Fatalf("unexpected result %+v", out)
	}

	p := posts.posts[out.PostID]
	if p.Title != "Sunset" {
		t.Fatalf("title not trimmed: %q", p.Title)
	}
	if p.MediaType != domain.MediaPhoto {
		t.Fatalf("expected photo, got %s", p.MediaType)
	}
	if p.Visibility != domain.VisibilityPublic {
		t.Fatalf("expected default visibility, got %s", p.Visibility)
	}
	if p.TagCount != 2 {
		t.Fatalf("expected 2 distinct tags, got %v", p.Tags)
	}
	if !bytes.Equal(media.saved[out.MediaURL], pngHeader) {
		t.Fatalf("stored media differs from upload")
	}
	if media.types[out.MediaURL] != "image/png" {
		t.Fatalf("store should receive the detected type, got %q", media.types[out.MediaURL])
	}
}

func TestPostService_Create_ReportsAllFields(t *testing.T) {
	svc, posts, _, _ := newTestPostService()

	_, err := svc.Create(context.Background(), alice, ports.CreatePostInput{
		Fields: map[string]any{"visibility": "secret"},
	})
	de, ok := domain.AsError(err)
	if !ok || de.Kind() != domain.KindValidation {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if de.Message() != "Validation failed" {
		t.Fatalf("unexpected message %q", de.Message())
	}
	for _, field := range []string{"media", "title", "visibility"} {
		if _, ok := de.Fields()[field]; !ok {
			t.Fatalf("expected %s field error, got %v", field, de.Fields())
		}
	}
	if len(posts.posts) != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestPostService_Create_MediaOnlyMessage(t *testing.T) {
	svc, _, _, _ := newTestPostService()

	_, err := svc.Create(context.Background(), alice, ports.CreatePostInput{Fields: map[string]any{"title": "x"}})
	de, ok := domain.AsError(err)
	if !ok || de.Message() != "Media file is required" {
		t.Fatalf("expected media message, got %v", err)
	}
}

func TestPostService_Create_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		in    ports.CreatePostInput
		field string
	}{
		{"no media", ports.CreatePostInput{Fields: map[string]any{"title": "x"}}, "media"},
		{"too large", ports.CreatePostInput{
			Fields: map[string]any{"title": "x"},
			Media:  &ports.MediaUpload{Filename: "big.png", Size: 2 << 20, Content: bytes.NewReader(pngHeader)},
		}, "media"},
		{"wrong type", ports.CreatePostInput{
			Fields: map[string]any{"title": "x"},
			Media:  &ports.MediaUpload{Filename: "a.png", Size: 5, Content: strings.NewReader("hello")},
		}, "media"},
		{"blank title", ports.CreatePostInput{Fields: map[string]any{"title": "   "}, Media: pngUpload()}, "title"},
		{"bad visibility", ports.CreatePostInput{
			Fields: map[string]any{"title": "x", "visibility": "secret"},
			Media:  pngUpload(),
		}, "visibility"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, posts, media, _ := newTestPostService()
			_, err := svc.Create(context.Background(), alice, tt.in)
			de, ok := domain.AsError(err)
			if !ok || de.Kind() != domain.KindValidation {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := de.Fields()[tt.field]; !ok {
				t.Fatalf("expected %s field error, got %v", tt.field, de.Fields())
			}
			if len(posts.posts) != 0 || len(media.saved) != 0 {
				t.Fatalf("nothing should be stored")
			}
		})
	}
}

func TestPostService_Create_CleansUpOnStorageFailure(t *testing.T) {
	svc, posts, _, cleaner := newTestPostService()
	posts.createErr = domain.ErrReferenceViolation

	_, err := svc.Create(context.Background(), alice, ports.CreatePostInput{
		Fields: map[string]any{"title": "x"},
		Media:  pngUpload(),
	})
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected ValidationError for missing author, got %v", err)
	}
	if len(cleaner.urls) != 1 {
		t.Fatalf("expected media cleanup, got %v", cleaner.urls)
	}
}

func TestPostService_Create_MediaStoreFailure(t *testing.T) {
	svc, _, media, _ := newTestPostService()
	media.err = errors.New("disk full")

	_, err := svc.Create(context.Background(), alice, ports.CreatePostInput{
		Fields: map[string]any{"title": "x"},
		Media:  pngUpload(),
	})
	if !domain.IsKind(err, domain.KindDatabase) {
		t.Fatalf("expected DatabaseError, got %v", err)
	}
}

func TestPostService_Feed(t *testing.T) {
	svc, posts, _, _ := newTestPostService()
	for i := 0; i < 3; i++ {
		_, _ = posts.Create(context.Background(), &domain.Post{UserID: "u1", Visibility: domain.VisibilityPublic})
	}
	_, _ = posts.Create(context.Background(), &domain.Post{UserID: "u1", Visibility: domain.VisibilityPrivate})

	page, err := svc.Feed(context.Background(), ports.FeedQuery{Page: 1, Limit: 2, FilterBy: "photographer", Sort: "popular"})
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(page.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(page.Posts))
	}
	want := ports.Pagination{Page: 1, Limit: 2, Total: 3, HasMore: true, TotalPages: 2}
	if page.Pagination != want {
		t.Fatalf("unexpected pagination %+v", page.Pagination)
	}
	if posts.lastFilter.Role != domain.RolePhotographer || posts.lastFilter.Sort != domain.SortPopular {
		t.Fatalf("filter not forwarded: %+v", posts.lastFilter)
	}

	page, err = svc.Feed(context.Background(), ports.FeedQuery{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("Feed page 2: %v", err)
	}
	if len(page.Posts) != 1 || page.Pagination.HasMore {
		t.Fatalf("unexpected last page %+v", page.Pagination)
	}
}

func TestPostService_Feed_InvalidQuery(t *testing.T) {
	svc, _, _, _ := newTestPostService()

	_, err := svc.Feed(context.Background(), ports.FeedQuery{FilterBy: "wizard", MediaType: "audio", Sort: "oldest"})
	de, ok := domain.AsError(err)
	if !ok || len(de.Fields()) != 3 {
		t.Fatalf("expected three field errors, got %v", err)
	}
}

func TestPostService_Get(t *testing.T) {
	svc, posts, _, _ := newTestPostService()
	pub, _ := posts.Create(context.Background(), &domain.Post{UserID: "u2", Visibility: domain.VisibilityPublic})
	priv, _ := posts.Create(context.Background(), &domain.Post{UserID: "u2", Visibility: domain.VisibilityPrivate})

	if _, err := svc.Get(context.Background(), alice, pub); err != nil {
		t.Fatalf("public post: %v", err)
	}
	if _, err := svc.Get(context.Background(), alice, priv); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected private post hidden, got %v", err)
	}
	owner := domain.Identity{ID: "u2", Role: domain.RolePhotographer}
	if _, err := svc.Get(context.Background(), owner, priv); err != nil {
		t.Fatalf("owner should see private post: %v", err)
	}
}

func TestPostService_Delete(t *testing.T) {
	svc, posts, _, cleaner := newTestPostService()
	id, _ := posts.Create(context.Background(), &domain.Post{UserID: "u2", MediaURL: "/uploads/users/u2/a.png"})

	if err := svc.Delete(context.Background(), alice, id); !domain.IsKind(err, domain.KindAuthorization) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	owner := domain.Identity{ID: "u2", Role: domain.RolePhotographer}
	if err := svc.Delete(context.Background(), owner, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(cleaner.urls) != 1 || cleaner.urls[0] != "/uploads/users/u2/a.png" {
		t.Fatalf("expected media cleanup, got %v", cleaner.urls)
	}
	if err := svc.Delete(context.Background(), owner, id); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostService_ListByUser(t *testing.T) {
	svc, posts, _, _ := newTestPostService()
	_, _ = posts.Create(context.Background(), &domain.Post{UserID: "u2", Visibility: domain.VisibilityPublic})
	_, _ = posts.Create(context.Background(), &domain.Post{UserID: "u2", Visibility: domain.VisibilityPrivate})

	page, err := svc.ListByUser(context.Background(), "u2", 0, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(page.Posts) != 1 || page.Pagination.Limit != defaultPageLimit || page.Pagination.Page != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	page, _ = svc.ListByUser(context.Background(), "nobody", 1, 10)
	if page.Posts == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}
