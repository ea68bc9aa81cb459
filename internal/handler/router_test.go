package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/folio/internal/auth"
	"github.com/prn-tf/folio/internal/cache/memory"
	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/lock"
	"github.com/prn-tf/folio/internal/metrics"
	"github.com/prn-tf/folio/internal/ratelimit"
	"github.com/prn-tf/folio/internal/repository/sqlite"
	"github.com/prn-tf/folio/internal/service"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse battery staple"
)

type testServer struct {
	handler http.Handler
	tokens  *auth.TokenService
	metrics *metrics.Metrics
}

type serverOption func(*testing.T, *RouterConfig)

func withRateLimit(limit int) serverOption {
	return func(t *testing.T, cfg *RouterConfig) {
		c := memory.NewCache()
		t.Cleanup(c.Stop)
		cfg.Limiter = ratelimit.New(c, time.Hour, limit, cfg.Metrics, zerolog.Nop())
	}
}

func withTrustProxy() serverOption {
	return func(_ *testing.T, cfg *RouterConfig) {
		cfg.TrustProxy = true
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(":memory:"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	store := sqlite.NewStore(db)
	locker := lock.NewMemoryLocker()
	t.Cleanup(locker.Stop)

	m := metrics.New()
	credentials := service.NewCredentialService(store.Repos.User, locker, 4, zerolog.Nop())
	_, err = credentials.Bootstrap(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	tokens := auth.NewTokenService("test-secret", time.Hour, "folio")

	cfg := RouterConfig{
		Credentials: credentials,
		Posts:       service.NewPostService(store.Repos.Post, locker, m, zerolog.Nop()),
		Projects:    service.NewProjectService(store.Repos.Project, zerolog.Nop()),
		Tokens:      tokens,
		Database:    store.Database,
		Metrics:     m,
		CORS:        config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}, MaxAge: 300},
		Environment: "test",
		MaxBodySize: 1 << 20,
		Logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t, &cfg)
	}

	return &testServer{
		handler: NewRouter(cfg).Handler(),
		tokens:  tokens,
		metrics: m,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	return resp.Token
}

func (s *testServer) readerToken(t *testing.T) string {
	t.Helper()
	token, _, err := s.tokens.Issue(&domain.User{ID: uuid.New(), Email: "reader@example.com", Role: domain.RoleReader})
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rec, &body)
	return body["error"]
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status      string    `json:"status"`
		Timestamp   time.Time `json:"timestamp"`
		Environment string    `json:"environment"`
		Uptime      float64   `json:"uptime"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, "test", body.Environment)
	assert.False(t, body.Timestamp.IsZero())
	assert.GreaterOrEqual(t, body.Uptime, 0.0)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/nope", "/elsewhere"} {
		rec := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Route not found", errorMessage(t, rec))
	}

	rec := s.do(t, http.MethodPatch, "/api/blog", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantError  string
	}{
		{"missing password", map[string]string{"email": adminEmail}, http.StatusBadRequest, "Email and password are required"},
		{"missing email", map[string]string{"password": "x"}, http.StatusBadRequest, "Email and password are required"},
		{"wrong password", map[string]string{"email": adminEmail, "password": "nope"}, http.StatusUnauthorized, "Invalid credentials"},
		{"unknown email", map[string]string{"email": "x@example.com", "password": adminPassword}, http.StatusUnauthorized, "Invalid credentials"},
		{"not json", "just a string", http.StatusBadRequest, "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, errorMessage(t, rec))
			assert.NotContains(t, rec.Body.String(), "token")
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    adminEmail,
			"password": adminPassword,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			User    map[string]any `json:"user"`
			Token   string         `json:"token"`
			Message string         `json:"message"`
		}
		decode(t, rec, &resp)

		assert.Equal(t, "Login successful", resp.Message)
		assert.Equal(t, adminEmail, resp.User["email"])
		assert.Equal(t, "ADMIN", resp.User["role"])
		assert.NotContains(t, resp.User, "password_hash")
		assert.NotContains(t, rec.Body.String(), "$2a$")

		claims, err := s.tokens.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, claims.Role)
	})
}

func TestMeAndLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		User domain.User `json:"user"`
	}
	decode(t, rec, &me)
	assert.Equal(t, adminEmail, me.User.Email)

	rec = s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token required", errorMessage(t, rec))

	rec = s.do(t, http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or expired token", errorMessage(t, rec))

	// A valid token for an identity that no longer exists.
	rec = s.do(t, http.MethodGet, "/api/auth/me", s.readerToken(t), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logout successful")
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	reader := s.readerToken(t)

	expired := auth.NewTokenService("test-secret", -time.Minute, "folio")
	expiredToken, _, err := expired.Issue(&domain.User{ID: uuid.New(), Email: adminEmail, Role: domain.RoleAdmin})
	require.NoError(t, err)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/posts"},
		{http.MethodPost, "/api/admin/posts"},
		{http.MethodPut, "/api/admin/posts/" + uuid.NewString()},
		{http.MethodDelete, "/api/admin/posts/" + uuid.NewString()},
		{http.MethodPost, "/api/projects"},
		{http.MethodPut, "/api/projects/" + uuid.NewString()},
		{http.MethodDelete, "/api/projects/" + uuid.NewString()},
	}

	post := map[string]string{"title": "Sneaky", "excerpt": "e", "content": "c", "read_time": "1"}
	project := map[string]any{"name": "Sneaky", "description": "d"}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			var body any = post
			if route.path[5:13] == "projects" {
				body = project
			}

			rec := s.do(t, route.method, route.path, "", body)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = s.do(t, route.method, route.path, reader, body)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Admin access required", errorMessage(t, rec))

			rec = s.do(t, route.method, route.path, expiredToken, body)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Invalid or expired token", errorMessage(t, rec))
		})
	}

	// Nothing was created.
	admin := s.login(t)
	rec := s.do(t, http.MethodGet, "/api/admin/posts", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts":[]}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"projects":[]}`, rec.Body.String())
}

type postEnvelope struct {
	Post    domain.Post `json:"post"`
	Message string      `json:"message"`
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/admin/posts", token, map[string]string{
		"title":     "Hello, World!",
		"excerpt":   "first post",
		"content":   "body",
		"read_time": "2 min",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created postEnvelope
	decode(t, rec, &created)
	assert.Equal(t, "hello-world", created.Post.Slug)
	assert.Equal(t, domain.PostStatusDraft, created.Post.Status)
	assert.Nil(t, created.Post.PublishedAt)
	assert.Equal(t, adminEmail, created.Post.Author)
	assert.Equal(t, "Post created successfully", created.Message)

	// Drafts are invisible to the public.
	rec = s.do(t, http.MethodGet, "/api/blog/hello-world", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", errorMessage(t, rec))

	// Same slug again conflicts.
	rec = s.do(t, http.MethodPost, "/api/admin/posts", token, map[string]string{
		"title": "hello world", "excerpt": "e", "content": "c", "read_time": "1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A post with this title already exists", errorMessage(t, rec))

	// Publish.
	path := "/api/admin/posts/" + created.Post.ID.String()
	rec = s.do(t, http.MethodPut, path, token, map[string]string{"status": "PUBLISHED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var published postEnvelope
	decode(t, rec, &published)
	require.NotNil(t, published.Post.PublishedAt)
	assert.False(t, published.Post.PublishedAt.Before(published.Post.CreatedAt))

	rec = s.do(t, http.MethodGet, "/api/blog/hello-world", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Editing the title keeps slug and publish time.
	rec = s.do(t, http.MethodPut, path, token, map[string]string{"title": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	var edited postEnvelope
	decode(t, rec, &edited)
	assert.Equal(t, "hello-world", edited.Post.Slug)
	require.NotNil(t, edited.Post.PublishedAt)
	assert.WithinDuration(t, *published.Post.PublishedAt, *edited.Post.PublishedAt, time.Millisecond)

	// No way back to draft.
	rec = s.do(t, http.MethodPut, path, token, map[string]string{"status": "DRAFT"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing fields.
	rec = s.do(t, http.MethodPost, "/api/admin/posts", token, map[string]string{"title": "Only a title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Delete twice.
	rec = s.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/admin/posts/not-a-uuid", token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlogSearchAndPagination(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	for i := 0; i < 25; i++ {
		rec := s.do(t, http.MethodPost, "/api/admin/posts", token, map[string]string{
			"title":     fmt.Sprintf("Published %02d", i),
			"excerpt":   "e",
			"content":   "c",
			"read_time": "1",
			"status":    "PUBLISHED",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(t, http.MethodPost, "/api/admin/posts", token, map[string]string{
		"title": "api internals", "excerpt": "e", "content": "c", "read_time": "1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/admin/posts", token, map[string]string{
		"title": "building secure apis", "excerpt": "e", "content": "c", "read_time": "1", "status": "PUBLISHED",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	type page struct {
		Posts      []domain.Post `json:"posts"`
		Pagination struct {
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
			Total int64 `json:"total"`
			Pages int   `json:"pages"`
		} `json:"pagination"`
	}

	rec = s.do(t, http.MethodGet, "/api/blog?search=api&page=1&limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var search page
	decode(t, rec, &search)
	require.Len(t, search.Posts, 1)
	assert.Equal(t, "building-secure-apis", search.Posts[0].Slug)

	// 26 published posts in total.
	tests := []struct {
		query     string
		wantItems int
		wantPage  int
		wantPages int
	}{
		{"?page=1&limit=10", 10, 1, 3},
		{"?page=3&limit=10", 6, 3, 3},
		{"?page=9&limit=10", 0, 9, 3},
		{"?page=922337203685477582&limit=10", 0, 922337203685477582, 3},
		{"?page=abc&limit=0", 10, 1, 3},
		{"?limit=5", 5, 1, 6},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/blog"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var p page
			decode(t, rec, &p)
			assert.Len(t, p.Posts, tt.wantItems)
			assert.Equal(t, tt.wantPage, p.Pagination.Page)
			assert.Equal(t, tt.wantPages, p.Pagination.Pages)
			assert.EqualValues(t, 26, p.Pagination.Total)
		})
	}
}

func TestProjects(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/projects", token, map[string]any{
		"name":          "folio",
		"description":   "this site",
		"github_url":    "https://github.com/example/folio",
		"technologies":  []string{"Go", "SQLite"},
		"featured":      true,
		"display_order": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Project domain.Project `json:"project"`
		Message string         `json:"message"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "Project created successfully", created.Message)
	assert.Equal(t, []string{"Go", "SQLite"}, created.Project.Technologies)

	rec = s.do(t, http.MethodPost, "/api/projects", token, map[string]any{"name": "side", "description": "quiet"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/projects", token, map[string]any{"name": "no description"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var list struct {
		Projects []domain.Project `json:"projects"`
	}
	rec = s.do(t, http.MethodGet, "/api/projects?featured=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, "folio", list.Projects[0].Name)

	rec = s.do(t, http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	require.Len(t, list.Projects, 2)
	assert.Equal(t, "side", list.Projects[0].Name, "display order 0 sorts first")

	path := "/api/projects/" + created.Project.ID.String()
	rec = s.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, path, token, map[string]any{"name": "folio v2", "description": "still this site"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Project updated successfully")
	assert.Contains(t, rec.Body.String(), `"featured":false`)

	rec = s.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found", errorMessage(t, rec))

	rec = s.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, withRateLimit(3))

	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodGet, "/api/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/blog", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, ratelimit.Message, errorMessage(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Routes outside /api are not limited.
	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitForwardedFor(t *testing.T) {
	get := func(s *testServer, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("ignored by default", func(t *testing.T) {
		s := newTestServer(t, withRateLimit(2))
		assert.Equal(t, http.StatusOK, get(s, "203.0.113.1"))
		assert.Equal(t, http.StatusOK, get(s, "203.0.113.2"))
		assert.Equal(t, http.StatusTooManyRequests, get(s, "203.0.113.3"))
	})

	t.Run("honoured behind a proxy", func(t *testing.T) {
		s := newTestServer(t, withRateLimit(2), withTrustProxy())
		assert.Equal(t, http.StatusOK, get(s, "203.0.113.1"))
		assert.Equal(t, http.StatusOK, get(s, "203.0.113.1"))
		assert.Equal(t, http.StatusTooManyRequests, get(s, "203.0.113.1"))
		assert.Equal(t, http.StatusOK, get(s, "203.0.113.2"))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/api/blog/missing", "", nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/blog/{slug}",status="404"} 1`)
}

func TestRecoverer(t *testing.T) {
	h := recoverer(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Something went wrong!", errorMessage(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
