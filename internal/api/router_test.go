package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/creatorspace/community-api/internal/core/auth"
	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
	"github.com/creatorspace/community-api/internal/core/service"
)

type stubUserRepo struct {
	users map[string]*domain.User
	calls int
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (string, error) {
	r.calls++
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return "", fmt.Errorf("insert user: %w", domain.ErrUniqueViolation)
		}
	}
	id := fmt.Sprintf("u%d", len(r.users)+1)
	clone := *u
	clone.ID = id
	r.users[id] = &clone
	return id, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.calls++
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.calls++
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) Update(context.Context, string, domain.UserUpdate) error {
	r.calls++
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.calls++
	delete(r.users, id)
	return nil
}

type nopPostService struct{}

func (nopPostService) Create(context.Context, domain.Identity, ports.CreatePostInput) (*ports.CreatedPost, error) {
	return nil, domain.NewValidationError("Media file is required", nil)
}

func (nopPostService) Feed(context.Context, ports.FeedQuery) (*ports.PostPage, error) {
	return &ports.PostPage{Posts: []*domain.Post{}}, nil
}

func (nopPostService) Get(context.Context, domain.Identity, string) (*domain.Post, error) {
	return nil, domain.NewNotFoundError("Post not found")
}

func (nopPostService) Delete(context.Context, domain.Identity, string) error { return nil }

func (nopPostService) ListByUser(context.Context, string, int, int) (*ports.PostPage, error) {
	return &ports.PostPage{Posts: []*domain.Post{}}, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(_ context.Context, _, _ string, limit int, window time.Duration) (ports.RateDecision, error) {
	return ports.RateDecision{Allowed: false, Limit: limit, ResetAt: time.Now().Add(window)}, nil
}

// clientRecorder allows every request and records the client key it saw.
type clientRecorder struct {
	mu      sync.Mutex
	clients []string
}

func (r *clientRecorder) Allow(_ context.Context, _, client string, limit int, window time.Duration) (ports.RateDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = append(r.clients, client)
	return ports.RateDecision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: time.Now().Add(window)}, nil
}

type testServer struct {
	e      *echo.Echo
	repo   *stubUserRepo
	tokens *auth.TokenService
}

func newTestServer(t *testing.T, limiter ports.RateLimiter, opts ...func(*Deps)) *testServer {
	t.Helper()

	hasher := auth.NewHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("testpass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Username: "testuser", Email: "test@example.com", PasswordHash: hash, Role: domain.RoleUser},
	}}
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	log := zerolog.Nop()
	deps := Deps{
		Log:      log,
		Tokens:   tokens,
		Auth:     service.NewAuthService(repo, hasher, tokens, 6, log),
		Users:    service.NewUserService(repo, log),
		Posts:    nopPostService{},
		Limiter:  limiter,
		Registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	e := NewRouter(deps)
	repo.calls = 0
	return &testServer{e: e, repo: repo, tokens: tokens}
}

func (s *testServer) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) bearer(t *testing.T, id domain.Identity) http.Header {
	t.Helper()
	tok, _, err := s.tokens.Issue(id, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return http.Header{"Authorization": []string{"Bearer " + tok}}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestRouter_LoginSuccess(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/login", `{"username":"testuser","password":"testpass123"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["id"] != "u1" || body["username"] != "testuser" || body["role"] != "user" || body["message"] != "Login successful" {
		t.Fatalf("unexpected body %v", body)
	}

	var token *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "token" {
			token = ck
		}
	}
	if token == nil || !token.HttpOnly || token.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected http-only strict token cookie, got %+v", token)
	}

	// The cookie alone authenticates the profile route.
	req := httptest.NewRequest(http.MethodGet, "/api/userprofile", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token.Value})
	prof := httptest.NewRecorder()
	s.e.ServeHTTP(prof, req)
	if prof.Code != http.StatusOK {
		t.Fatalf("expected profile 200, got %d: %s", prof.Code, prof.Body.String())
	}
	if strings.Contains(prof.Body.String(), "password") {
		t.Fatalf("profile must not expose the password hash: %s", prof.Body.String())
	}
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	s := newTestServer(t, nil)

	for _, body := range []string{
		`{"username":"testuser","password":"nope"}`,
		`{"username":"ghost","password":"testpass123"}`,
	} {
		rec := s.do(http.MethodPost, "/login", body, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		d := decodeError(t, rec)
		if d.Code != "AuthenticationError" || d.Message != "Invalid username or password" {
			t.Fatalf("unexpected error %+v", d)
		}
	}
}

func TestRouter_CreateValidation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/create", `{"username":"ab"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	d := decodeError(t, rec)
	if d.Code != "ValidationError" {
		t.Fatalf("unexpected code %q", d.Code)
	}
	for _, key := range []string{"username", "password"} {
		if _, ok := d.Fields[key]; !ok {
			t.Fatalf("expected %s in fields, got %v", key, d.Fields)
		}
	}
	if d.Stack != "" {
		t.Fatalf("stack must not be exposed outside development")
	}
	if s.repo.calls != 0 {
		t.Fatalf("storage touched on invalid input")
	}
}

func TestRouter_CreateDuplicate(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/create", `{"username":"newbie","password":"secret1"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodPost, "/api/create", `{"username":"newbie","password":"secret1"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if d := decodeError(t, rec); d.Code != "ConflictError" {
		t.Fatalf("unexpected code %q", d.Code)
	}
}

func TestRouter_NonAdminDelete(t *testing.T) {
	s := newTestServer(t, nil)
	header := s.bearer(t, domain.Identity{ID: "u1", Username: "testuser", Role: domain.RoleUser})

	rec := s.do(http.MethodDelete, "/userprofile/u2", "", header)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if d := decodeError(t, rec); d.Code != "AuthorizationError" {
		t.Fatalf("unexpected code %q", d.Code)
	}
	if s.repo.calls != 0 {
		t.Fatalf("storage touched on forbidden request")
	}
}

func TestRouter_MissingToken(t *testing.T) {
	s := newTestServer(t, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/userprofile"},
		{http.MethodDelete, "/userprofile/u1"},
		{http.MethodGet, "/api/posts/feed"},
		{http.MethodPost, "/api/logout"},
	} {
		rec := s.do(route.method, route.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, rec.Code)
		}
		if d := decodeError(t, rec); d.Code != "AuthenticationError" {
			t.Fatalf("unexpected code %q", d.Code)
		}
	}
	if s.repo.calls != 0 {
		t.Fatalf("storage touched without a token: %d calls", s.repo.calls)
	}
}

func TestRouter_FeedQueryValidation(t *testing.T) {
	s := newTestServer(t, nil)
	header := s.bearer(t, domain.Identity{ID: "u1", Role: domain.RoleUser})

	rec := s.do(http.MethodGet, "/api/posts/feed?limit=500&sort=oldest", "", header)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	d := decodeError(t, rec)
	if _, ok := d.Fields["limit"]; !ok {
		t.Fatalf("expected limit field error, got %v", d.Fields)
	}

	rec = s.do(http.MethodGet, "/api/posts/feed?page=2&filter_by=all", "", header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_RateLimited(t *testing.T) {
	s := newTestServer(t, denyLimiter{})

	rec := s.do(http.MethodPost, "/login", `{"username":"testuser","password":"testpass123"}`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if d := decodeError(t, rec); d.Code != "RateLimitError" {
		t.Fatalf("unexpected code %q", d.Code)
	}
	if s.repo.calls != 0 {
		t.Fatalf("storage touched on rate limited request")
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/", "/ping", "/health", "/csrf-token", "/metrics"} {
		if rec := s.do(http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := s.do(http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if d := decodeError(t, rec); d.Code != "ResourceNotFoundError" {
		t.Fatalf("unexpected code %q", d.Code)
	}
}

func TestRouter_RateLimitIgnoresForwardedFor(t *testing.T) {
	rec := &clientRecorder{}
	s := newTestServer(t, rec)

	for i := 0; i < 5; i++ {
		header := http.Header{echo.HeaderXForwardedFor: []string{fmt.Sprintf("203.0.113.%d", i)}}
		s.do(http.MethodPost, "/login", `{"username":"testuser","password":"nope"}`, header)
	}
	if len(rec.clients) != 5 {
		t.Fatalf("expected 5 limiter calls, got %d", len(rec.clients))
	}
	for _, c := range rec.clients {
		if c != "192.0.2.1" {
			t.Fatalf("limiter keyed on %q, want the socket address", c)
		}
	}
}

func TestRouter_RateLimitTrustedProxy(t *testing.T) {
	rec := &clientRecorder{}
	s := newTestServer(t, rec, func(d *Deps) { d.TrustProxy = true })

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"testuser","password":"nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXForwardedFor, "203.0.113.7")
	req.RemoteAddr = "10.0.0.2:41000"
	s.e.ServeHTTP(httptest.NewRecorder(), req)

	if len(rec.clients) != 1 || rec.clients[0] != "203.0.113.7" {
		t.Fatalf("expected forwarded client from a private proxy, got %v", rec.clients)
	}
}

func TestRouter_ProfileUpdateAndDeletePaths(t *testing.T) {
	s := newTestServer(t, nil)
	self := s.bearer(t, domain.Identity{ID: "u1", Username: "testuser", Role: domain.RoleUser})
	admin := s.bearer(t, domain.Identity{ID: "a1", Username: "root", Role: domain.RoleAdmin})

	rec := s.do(http.MethodPut, "/userprofile/u1", `{"email":"new@example.com"}`, self)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /userprofile/u1: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodDelete, "/userprofile/u1", "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /userprofile/u1: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := s.repo.users["u1"]; ok {
		t.Fatal("user should be deleted")
	}

	rec = s.do(http.MethodPut, "/api/userprofile/u1", `{"email":"new@example.com"}`, self)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("PUT /api/userprofile/u1: expected 404, got %d", rec.Code)
	}
}
