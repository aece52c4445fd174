package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
)

func newTestRouter(t *testing.T, checks ...ReadinessCheck) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	return NewRouter(RouterParams{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:         &Config{AppEnv: "development", AppRequestTimeout: 5 * time.Second},
		Templates:      templates,
		SessionManager: shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "secret", time.Hour, false),
		CSRFManager:    shared.NewCSRFManager("csrfsecret"),
		Readiness:      checks,
	})
}

func TestHealthz(t *testing.T) {
	res := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
}

func TestReadyzReportsRequiredFailures(t *testing.T) {
	ok := ReadinessCheck{Name: "redis", Ping: func(context.Context) error { return nil }}
	optional := ReadinessCheck{Name: "gotenberg", Optional: true, Ping: func(context.Context) error { return errors.New("down") }}

	res := httptest.NewRecorder()
	newTestRouter(t, ok, optional).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"redis":"ok","gotenberg":"down"}}`, res.Body.String())

	failing := ReadinessCheck{Name: "backend", Ping: func(context.Context) error { return errors.New("refused") }}
	res = httptest.NewRecorder()
	newTestRouter(t, ok, failing).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Contains(t, res.Body.String(), `"unavailable"`)
}

func TestRootRedirectsAnonymousToLogin(t *testing.T) {
	res := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
	assert.NotEmpty(t, res.Header().Get("X-Frame-Options"))
}

func TestStaticAssetsAreCached(t *testing.T) {
	res := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/static/js/boards.js", nil))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "public, max-age=3600", res.Header().Get("Cache-Control"))
	assert.Contains(t, res.Body.String(), "WebSocket")
}

func TestUnknownPathRendersErrorPage(t *testing.T) {
	res := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.True(t, strings.HasPrefix(res.Header().Get("Content-Type"), "text/html"))
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://example.com/admin")
	res := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(res, req)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/admin", res.Header().Get("Location"))
}

func TestRefererOr(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://app.test/x", nil)
	assert.Equal(t, "/", refererOr(req, "/"))
	req.Header.Set("Referer", "http://evil.test/steal")
	assert.Equal(t, "/", refererOr(req, "/"))
	req.Header.Set("Referer", "http://app.test/reports?start_date=2026-01-01")
	assert.Equal(t, "/reports?start_date=2026-01-01", refererOr(req, "/"))
}
