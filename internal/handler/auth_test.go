package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/taskboard/internal/auth"
	sqliteRepo "github.com/sakif/taskboard/internal/repository/sqlite"
	"github.com/sakif/taskboard/internal/service"
)

// newTestRouter assembles the real routing surface — in-memory SQLite, real
// services, real middleware — around the given token strategy. It mirrors
// the wiring in internal/server so these tests exercise the same chain a
// deployed request goes through.
func newTestRouter(t *testing.T, strategy auth.TokenStrategy) chi.Router {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { db.Close() })
	users := sqliteRepo.NewUserDB(db)
	tasks := sqliteRepo.NewTaskDB(db)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	view, err := NewView(filepath.Join("..", "..", "web", "templates"), logger)
	require.NoError(t, err, "parsing templates")

	passwords := auth.NewPasswordServiceForTest(4)
	authService := service.NewAuthService(users, strategy, passwords, logger)
	taskService := service.NewTaskService(tasks, logger)

	pageHandler := NewPageHandler(view, logger)
	authHandler := NewAuthHandler(authService, strategy, view, logger)
	taskHandler := NewTaskHandler(taskService, view, logger)

	requireAuth := auth.RequireAuth(strategy, users, logger)
	optionalAuth := auth.OptionalAuth(strategy, users, logger)

	r := chi.NewRouter()
	r.With(optionalAuth).Get("/", pageHandler.HandleHome)
	r.Get("/login", pageHandler.HandleLoginPage)
	r.Get("/register", pageHandler.HandleRegisterPage)
	r.Post("/register", authHandler.HandleRegister)
	r.Post("/login", authHandler.HandleLogin)
	r.Post("/logout", authHandler.HandleLogout)
	r.Route("/tasks", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", taskHandler.HandleDashboard)
		r.Post("/", taskHandler.HandleCreateForm)
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", authHandler.HandleMe)
		r.Get("/tasks", taskHandler.HandleListAPI)
	})
	return r
}

func newJWTRouter(t *testing.T) chi.Router {
	t.Helper()
	strategy, err := auth.NewJWTStrategy("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)
	return newTestRouter(t, strategy)
}

// postForm performs an HTML-form POST, optionally presenting a cookie.
func postForm(r chi.Router, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func get(r chi.Router, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// tokenCookie extracts the auth cookie from a response, failing the test if
// it is absent.
func tokenCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("response did not set the auth cookie")
	return nil
}

func creds(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

// TestAuthFlow_EndToEnd walks the whole externally observable contract:
// register sets the cookie and redirects, a wrong password gets the generic
// failure, a correct login grants access to /tasks, and logout closes the
// door again.
func TestAuthFlow_EndToEnd(t *testing.T) {
	r := newJWTRouter(t)

	// Register: 302 to /tasks, cookie set.
	rec := postForm(r, "/register", creds("alice", "p1"), nil)
	require.Equal(t, http.StatusFound, rec.Code, "register should redirect")
	assert.Equal(t, "/tasks", rec.Header().Get("Location"))
	cookie := tokenCookie(t, rec)
	assert.True(t, cookie.HttpOnly, "auth cookie must be HttpOnly")

	// Wrong password: generic invalid-credentials, no cookie.
	rec = postForm(r, "/login", creds("alice", "wrong"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")

	// Unknown user: byte-for-byte the same generic message.
	unknown := postForm(r, "/login", creds("nobody", "whatever"), nil)
	assert.Equal(t, rec.Code, unknown.Code)
	assert.Equal(t, rec.Body.String(), unknown.Body.String(),
		"unknown user and wrong password must be indistinguishable")

	// Correct login: 302, fresh cookie.
	rec = postForm(r, "/login", creds("alice", "p1"), nil)
	require.Equal(t, http.StatusFound, rec.Code)
	cookie = tokenCookie(t, rec)

	// Protected dashboard with the cookie: 200.
	rec = get(r, "/tasks", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")

	// Logout: cookie cleared, redirected to /login.
	rec = postForm(r, "/logout", nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must clear the auth cookie")

	// Without the cookie, /tasks is gated again.
	rec = get(r, "/tasks", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	r := newJWTRouter(t)

	rec := postForm(r, "/register", creds("alice", "p1"), nil)
	require.Equal(t, http.StatusFound, rec.Code)

	// Same username, any password: conflict, and the password is not
	// echoed anywhere in the page.
	rec = postForm(r, "/register", creds("alice", "a-different-password"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already taken")
	assert.NotContains(t, rec.Body.String(), "a-different-password")
}

func TestProtectedAPI_WithoutCookieIs401(t *testing.T) {
	r := newJWTRouter(t)

	rec := get(r, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestAPIMe_ReturnsUserWithoutHash(t *testing.T) {
	r := newJWTRouter(t)

	rec := postForm(r, "/register", creds("alice", "p1"), nil)
	cookie := tokenCookie(t, rec)

	rec = get(r, "/api/me", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	// json:"-" on PasswordHash: the hash must never appear in a response.
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestHomePage_OptionalAuth(t *testing.T) {
	r := newJWTRouter(t)

	// Anonymous: 200, generic greeting.
	rec := get(r, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "alice")

	// Logged in: same page greets the user.
	reg := postForm(r, "/register", creds("alice", "p1"), nil)
	rec = get(r, "/", tokenCookie(t, reg))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
}

// TestSessionStrategy_LogoutRevokesServerSide is the one behavior the two
// strategies genuinely differ on: with server-side sessions, the OLD cookie
// value stops working after logout even if a client kept a copy of it.
func TestSessionStrategy_LogoutRevokesServerSide(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	strategy, err := auth.NewSessionStrategy(client, time.Hour)
	require.NoError(t, err)
	r := newTestRouter(t, strategy)

	rec := postForm(r, "/register", creds("alice", "p1"), nil)
	require.Equal(t, http.StatusFound, rec.Code)
	cookie := tokenCookie(t, rec)

	// Session works.
	rec = get(r, "/tasks", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// Logout deletes the session record server-side.
	postForm(r, "/logout", nil, cookie)

	// Replaying the old, not-yet-expired cookie is now denied — true
	// revocation, which the stateless JWT strategy cannot do.
	rec = get(r, "/tasks", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
