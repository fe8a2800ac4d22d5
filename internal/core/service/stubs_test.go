package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
)

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
	calls  int
	err    error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return "", fmt.Errorf("insert user: %w", domain.ErrUniqueViolation)
		}
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("u%d", r.nextID)
	r.users[copy.ID] = copy
	return copy.ID, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) Update(_ context.Context, id string, update domain.UserUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	if update.Username != nil {
		u.Username = *update.Username
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.Role != nil {
		u.Role = *update.Role
	}
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type stubPostRepo struct {
	posts      map[string]*domain.Post
	nextID     int
	lastFilter ports.FeedFilter
	createErr  error
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{posts: make(map[string]*domain.Post)}
}

func (r *stubPostRepo) Create(_ context.Context, post *domain.Post) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	r.nextID++
	copy := *post
	copy.ID = fmt.Sprintf("p%d", r.nextID)
	r.posts[copy.ID] = &copy
	return copy.ID, nil
}

func (r *stubPostRepo) FindByID(_ context.Context, id string) (*domain.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (r *stubPostRepo) Feed(_ context.Context, filter ports.FeedFilter) ([]*domain.Post, int64, error) {
	r.lastFilter = filter
	var out []*domain.Post
	for _, p := range r.posts {
		if p.Visibility == filter.Visibility {
			out = append(out, p)
		}
	}
	total := int64(len(out))
	if filter.Offset >= len(out) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[filter.Offset:end], total, nil
}

func (r *stubPostRepo) ListByUser(_ context.Context, userID string, visibility domain.Visibility, offset, limit int) ([]*domain.Post, int64, error) {
	var out []*domain.Post
	for _, p := range r.posts {
		if p.UserID == userID && p.Visibility == visibility {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubPostRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

type stubMediaStore struct {
	saved map[string][]byte
	types map[string]string
	err   error
}

func newStubMediaStore() *stubMediaStore {
	return &stubMediaStore{saved: make(map[string][]byte), types: make(map[string]string)}
}

func (s *stubMediaStore) Save(_ context.Context, userID, filename, contentType string, content io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	url := "/uploads/users/" + userID + "/" + filename
	s.saved[url] = b
	s.types[url] = contentType
	return url, nil
}

func (s *stubMediaStore) Delete(_ context.Context, mediaURL string) error {
	if _, ok := s.saved[mediaURL]; !ok {
		return errors.New("missing")
	}
	delete(s.saved, mediaURL)
	return nil
}

type stubCleaner struct {
	urls []string
}

func (c *stubCleaner) Enqueue(mediaURL string) {
	c.urls = append(c.urls, mediaURL)
}
