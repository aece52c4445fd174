package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/buensabor/buensabor-web/internal/auth"
	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/services"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
	_ "github.com/buensabor/buensabor-web/testing"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type harness struct {
	router   http.Handler
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	calls    atomic.Int32
}

func newHarness(t *testing.T, backendMux http.Handler) *harness {
	t.Helper()
	h := &harness{}
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.calls.Add(1)
		backendMux.ServeHTTP(w, r)
	})
	srv := httptest.NewServer(counting)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h.sessions = shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	h.csrf = shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	client := backend.New(backend.Options{BaseURL: srv.URL, OnUnauthorized: auth.ForgetOnUnauthorized})
	registry := services.NewRegistry(client)
	handler := auth.NewHandler(nil, auth.NewService(client, registry.Profile, time.Hour), templates, h.sessions, h.csrf, "http://app.test")

	r := chi.NewRouter()
	r.Use(auth.LoadSession(nil))
	handler.MountRoutes(r)
	h.router = r
	return h
}

// do runs one request through a loaded session and commits it afterwards.
func (h *harness) do(t *testing.T, req *http.Request, sess *shared.Session) *httptest.ResponseRecorder {
	t.Helper()
	if sess == nil {
		var err error
		sess, err = h.sessions.Load(context.Background(), req)
		if err != nil {
			t.Fatalf("load session: %v", err)
		}
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)
	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	if err := h.sessions.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginPage(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	res := h.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatalf("expected login form in body")
	}
	if got := res.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestLoginRedirectsByRole(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "cocina@buensabor.test" {
			t.Errorf("unexpected email %q", body["email"])
		}
		token := signToken(t, jwt.MapClaims{"sub": "cocina@buensabor.test", "id_key": 12, "role": "cocinero", "exp": time.Now().Add(time.Hour).Unix()})
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token, "token_type": "bearer"})
	})
	h := newHarness(t, mux)

	req := postForm("/login", url.Values{"email": {"cocina@buensabor.test"}, "password": {"secreto1"}})
	sess, _ := h.sessions.Load(context.Background(), req)
	oldID := sess.ID
	res := h.do(t, req, sess)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/boards/kitchen" {
		t.Fatalf("expected kitchen board, got %q", loc)
	}
	stored, ok := sess.Auth()
	if !ok {
		t.Fatalf("auth session not stored")
	}
	if stored.Claims.UserID != "12" || stored.Claims.Role != shared.RoleCook {
		t.Fatalf("unexpected claims %+v", stored.Claims)
	}
	if sess.ID == oldID {
		t.Fatalf("session id must change on login")
	}
}

func TestLoginFirstLoginGoesToPassword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		token := signToken(t, jwt.MapClaims{"id": "5", "role": "cajero", "first_login": true})
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	h := newHarness(t, mux)

	res := h.do(t, postForm("/login", url.Values{"email": {"caja@buensabor.test"}, "password": {"abc123"}}), nil)
	if loc := res.Header().Get("Location"); loc != "/profile/password" {
		t.Fatalf("expected password page, got %q", loc)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
	})
	h := newHarness(t, mux)

	res := h.do(t, postForm("/login", url.Values{"email": {"user@test.local"}, "password": {"wrongpass1"}}), nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Email o contraseña incorrectos.") {
		t.Fatalf("expected error message in response")
	}
}

func TestLoginValidationSkipsBackend(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	res := h.do(t, postForm("/login", url.Values{"email": {"not-an-email"}}), nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if h.calls.Load() != 0 {
		t.Fatalf("backend must not be called on invalid input")
	}
}

func signedInSession(t *testing.T, h *harness, claims shared.Claims) *shared.Session {
	t.Helper()
	sess, err := h.sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetAuth(shared.AuthSession{Token: "tok", Claims: claims, ExpiresAt: time.Now().Add(time.Hour)})
	return sess
}

func TestPasswordChangeRejectsWeakPasswordsBeforeNetwork(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	cases := []url.Values{
		{"password": {"a1b2"}, "confirm_password": {"a1b2"}},
		{"password": {"abcdefgh"}, "confirm_password": {"abcdefgh"}},
		{"password": {"12345678"}, "confirm_password": {"12345678"}},
		{"password": {"abc123"}, "confirm_password": {"abc124"}},
	}
	for _, form := range cases {
		sess := signedInSession(t, h, shared.Claims{UserID: "1", Role: shared.RoleCashier})
		res := h.do(t, postForm("/profile/password", form), sess)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", form, res.Code)
		}
	}
	if h.calls.Load() != 0 {
		t.Fatalf("expected no backend calls, got %d", h.calls.Load())
	}
}

func TestPasswordChangeClearsFirstLogin(t *testing.T) {
	var got map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/user/update/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{}`))
	})
	h := newHarness(t, mux)
	sess := signedInSession(t, h, shared.Claims{UserID: "1", Role: shared.RoleCashier, FirstLogin: true})

	res := h.do(t, postForm("/profile/password", url.Values{"password": {"nueva123"}, "confirm_password": {"nueva123"}}), sess)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/boards/cashier" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if got["password"] != "nueva123" {
		t.Fatalf("password not sent: %v", got)
	}
	stored, _ := sess.Auth()
	if stored.Claims.FirstLogin {
		t.Fatalf("first_login must be cleared")
	}
}

func TestPasswordPageRequiresSession(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	res := h.do(t, httptest.NewRequest(http.MethodGet, "/profile/password", nil), nil)
	if loc := res.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected login redirect, got %q", loc)
	}
}

func TestGoogleLoginRedirectsToBackend(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	res := h.do(t, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil), nil)
	loc := res.Header().Get("Location")
	if !strings.Contains(loc, "/auth/google/login?redirect_uri=") || !strings.Contains(loc, url.QueryEscape("http://app.test/auth/callback")) {
		t.Fatalf("unexpected google redirect %q", loc)
	}
}

func TestCallbackStoresToken(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	token := signToken(t, jwt.MapClaims{"user_id": 77, "role": "cliente", "email": "cli@test.local"})
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?token="+token, nil)
	sess, _ := h.sessions.Load(context.Background(), req)
	res := h.do(t, req, sess)
	if loc := res.Header().Get("Location"); loc != "/account" {
		t.Fatalf("expected account redirect, got %q", loc)
	}
	stored, ok := sess.Auth()
	if !ok || stored.Claims.UserID != "77" {
		t.Fatalf("unexpected auth %+v", stored)
	}
}

func TestCallbackRejectsGarbage(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	res := h.do(t, httptest.NewRequest(http.MethodGet, "/auth/callback?token=nope", nil), nil)
	if loc := res.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected login redirect, got %q", loc)
	}
}

func TestExpiredSessionIsDropped(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	sess, _ := h.sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	sess.SetAuth(shared.AuthSession{Token: "old", Claims: shared.Claims{Role: shared.RoleAdmin}, ExpiresAt: time.Now().Add(-time.Minute)})

	res := h.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), sess)
	if res.Code != http.StatusOK {
		t.Fatalf("expected login page, got %d", res.Code)
	}
	if _, ok := sess.Auth(); ok {
		t.Fatalf("expired auth must be cleared")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	sess := signedInSession(t, h, shared.Claims{UserID: "1", Role: shared.RoleAdmin})
	res := h.do(t, postForm("/logout", url.Values{}), sess)
	if loc := res.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected login redirect, got %q", loc)
	}
	if _, ok := sess.Auth(); ok {
		t.Fatalf("auth must be cleared")
	}
}
