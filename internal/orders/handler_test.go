package orders_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/buensabor/buensabor-web/internal/auth"
	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/orders"
	"github.com/buensabor/buensabor-web/internal/rbac"
	"github.com/buensabor/buensabor-web/internal/services"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
	_ "github.com/buensabor/buensabor-web/testing"
)

type harness struct {
	router   http.Handler
	sessions *shared.SessionManager
}

func newHarness(t *testing.T, backendMux http.Handler) *harness {
	t.Helper()
	srv := httptest.NewServer(backendMux)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "secret", time.Hour, false)
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	client := backend.New(backend.Options{BaseURL: srv.URL, OnUnauthorized: auth.ForgetOnUnauthorized})
	registry := services.NewRegistry(client)
	service := orders.NewService(registry.Orders, nil, nil, nil, nil)
	handler := orders.NewHandler(nil, service, nil, templates, shared.NewCSRFManager("csrfsecret"),
		rbac.Middleware{Templates: templates}, "https://buensabor.test")

	r := chi.NewRouter()
	r.Use(auth.LoadSession(nil))
	handler.MountRoutes(r)
	return &harness{router: r, sessions: sessions}
}

func (h *harness) do(t *testing.T, req *http.Request, role string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	sess, err := h.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if role != "" {
		sess.SetAuth(shared.AuthSession{Token: "tok", Claims: shared.Claims{UserID: "1", Role: role}, ExpiresAt: time.Now().Add(time.Hour)})
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	return res, sess
}

func kitchenBackend() *chi.Mux {
	mux := chi.NewRouter()
	mux.Get("/order/status/{status}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "status") != "en_cocina" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id_key":31,"status":"en_cocina","delivery_method":"pickup","final_total":2500,"details":[{"manufactured_item_id":1,"quantity":2,"manufactured_item":{"id_key":1,"name":"Lomito"}}]}],"total":1,"offset":0,"limit":20}`))
	})
	mux.Get("/order/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id_key":31,"status":"en_cocina","delivery_method":"pickup","final_total":2500}`))
	})
	return mux
}

func TestKitchenBoardListsOrders(t *testing.T) {
	h := newHarness(t, kitchenBackend())
	res, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/boards/kitchen", nil), shared.RoleCook)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	body := res.Body.String()
	for _, want := range []string{"#31", "Lomito", "Marcar listo", "/boards/kitchen/orders/31/advance"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q on the board", want)
		}
	}
}

func TestBoardRejectsOtherRoles(t *testing.T) {
	h := newHarness(t, kitchenBackend())
	res, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/boards/delivery", nil), shared.RoleCook)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	res, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/boards/kitchen", nil), "")
	if loc := res.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected login redirect, got %q", loc)
	}
	res, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/boards/bar", nil), shared.RoleAdmin)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestAdvanceRedirectsWithFlash(t *testing.T) {
	mux := kitchenBackend()
	var status string
	mux.Put("/order/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		status = r.URL.Query().Get("status")
		_, _ = w.Write([]byte(`{"id_key":31,"status":"listo","delivery_method":"pickup"}`))
	})
	h := newHarness(t, mux)

	req := httptest.NewRequest(http.MethodPost, "/boards/kitchen/orders/31/advance", strings.NewReader(url.Values{}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, sess := h.do(t, req, shared.RoleCook)
	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/boards/kitchen" {
		t.Fatalf("expected redirect to board, got %d %q", res.Code, res.Header().Get("Location"))
	}
	if status != "listo" {
		t.Fatalf("expected status listo, got %q", status)
	}
	if flash := sess.PopFlash(); flash == nil || flash.Kind != "success" {
		t.Fatalf("expected success flash, got %+v", flash)
	}
}

func TestStaleAdvanceWarns(t *testing.T) {
	h := newHarness(t, kitchenBackend())
	req := httptest.NewRequest(http.MethodPost, "/boards/cashier/orders/31/advance", nil)
	res, sess := h.do(t, req, shared.RoleCashier)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if flash := sess.PopFlash(); flash == nil || flash.Kind != "warning" {
		t.Fatalf("expected warning flash, got %+v", flash)
	}
}

func TestFeedReturnsColumnsAsJSON(t *testing.T) {
	h := newHarness(t, kitchenBackend())
	res, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/boards/kitchen/feed", nil), shared.RoleCook)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload struct {
		Board   string           `json:"board"`
		Columns []orders.Column `json:"columns"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if payload.Board != "kitchen" || len(payload.Columns) != 1 || len(payload.Columns[0].Orders) != 1 {
		t.Fatalf("unexpected feed %+v", payload)
	}
}

func TestFeedUnauthorizedIsProblem(t *testing.T) {
	mux := chi.NewRouter()
	mux.Get("/order/status/{status}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h := newHarness(t, mux)
	res, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/boards/kitchen/feed", nil), shared.RoleCook)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem json, got %q", ct)
	}
}

func TestOrderDetailAndTicket(t *testing.T) {
	h := newHarness(t, kitchenBackend())
	res, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/orders/31", nil), shared.RoleCashier)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if !strings.Contains(res.Body.String(), "/orders/31/qr.png") {
		t.Fatalf("expected tracking QR on the detail page")
	}

	res, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/orders/31/ticket.pdf", nil), shared.RoleCook)
	if ct := res.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected pdf, got %q", ct)
	}

	res, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/orders/31/qr.png", nil), shared.RoleDelivery)
	if ct := res.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected png, got %q", ct)
	}

	res, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/orders/31", nil), shared.RoleClient)
	if res.Code != http.StatusForbidden {
		t.Fatalf("clients must not open staff order pages, got %d", res.Code)
	}
}
