package reports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/buensabor/buensabor-web/internal/auth"
	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/rbac"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
	_ "github.com/buensabor/buensabor-web/testing"
)

type handlerHarness struct {
	router   http.Handler
	sessions *shared.SessionManager
	pdf      *capturePDF
}

func newHandlerHarness(t *testing.T, src Source) *handlerHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "secret", time.Hour, false)
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	pdf := &capturePDF{}
	handler := NewHandler(nil, NewService(src, nil, nil), templates, shared.NewCSRFManager("csrfsecret"), rbac.Middleware{Templates: templates}, pdf)
	handler.WithNow(func() time.Time { return time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC) })

	r := chi.NewRouter()
	r.Use(auth.LoadSession(nil))
	handler.MountRoutes(r)
	return &handlerHarness{router: r, sessions: sessions, pdf: pdf}
}

func (h *handlerHarness) do(t *testing.T, target, role string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
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

func TestDashboardRendersChartsAndTables(t *testing.T) {
	h := newHandlerHarness(t, sampleSource(t))
	res, _ := h.do(t, "/reports?start_date=2026-03-01&end_date=2026-03-03", shared.RoleAdmin)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	body := res.Body.String()
	for _, want := range []string{"<svg", "Lomito", "Ana Díaz", "/reports/export.csv?end_date=2026-03-03&amp;start_date=2026-03-01"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in dashboard", want)
		}
	}
}

func TestDashboardRejectsInvalidRange(t *testing.T) {
	h := newHandlerHarness(t, sampleSource(t))
	res, _ := h.do(t, "/reports?start_date=2026-03-05&end_date=2026-03-01", shared.RoleAdmin)
	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "anterior") {
		t.Fatalf("expected range message in body")
	}
}

func TestReportsAreAdminOnly(t *testing.T) {
	h := newHandlerHarness(t, sampleSource(t))
	if res, _ := h.do(t, "/reports", shared.RoleCashier); res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	res, _ := h.do(t, "/reports/export.csv", "")
	if loc := res.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected login redirect, got %q", loc)
	}
}

func TestDashboardUnauthorizedGoesToLogin(t *testing.T) {
	src := sampleSource(t)
	src.err = shared.ErrUnauthorized
	h := newHandlerHarness(t, src)
	res, _ := h.do(t, "/reports", shared.RoleAdmin)
	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/login" {
		t.Fatalf("expected login redirect, got %d %q", res.Code, res.Header().Get("Location"))
	}
}

func TestExports(t *testing.T) {
	src := sampleSource(t)
	src.excel = backend.Download{ContentType: "application/octet-stream", Data: []byte("PK\x03\x04")}
	h := newHandlerHarness(t, src)
	query := "?start_date=2026-03-01&end_date=2026-03-03"

	cases := []struct {
		path        string
		contentType string
		filename    string
	}{
		{"/reports/export.csv", "text/csv; charset=utf-8", "reportes-2026-03-01-2026-03-03.csv"},
		{"/reports/rankings.xlsx", xlsxType, "rankings-2026-03-01-2026-03-03.xlsx"},
		{"/reports/revenue.xlsx", xlsxType, "ingresos-2026-03-01-2026-03-03.xlsx"},
		{"/reports/pdf", "application/pdf", "reportes-2026-03-01-2026-03-03.pdf"},
	}
	for _, tc := range cases {
		res, _ := h.do(t, tc.path+query, shared.RoleAdmin)
		if res.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.path, res.Code)
		}
		if ct := res.Header().Get("Content-Type"); ct != tc.contentType {
			t.Fatalf("%s: expected %q, got %q", tc.path, tc.contentType, ct)
		}
		if cd := res.Header().Get("Content-Disposition"); !strings.Contains(cd, tc.filename) {
			t.Fatalf("%s: expected filename %q, got %q", tc.path, tc.filename, cd)
		}
	}
	if !strings.Contains(h.pdf.html, "Lomito") {
		t.Fatalf("expected dashboard html sent to the pdf renderer")
	}
}

func TestExportFailureFlashes(t *testing.T) {
	h := newHandlerHarness(t, sampleSource(t))
	h.pdf.err = context.DeadlineExceeded
	res, sess := h.do(t, "/reports/pdf?start_date=2026-03-01&end_date=2026-03-03", shared.RoleAdmin)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); !strings.HasPrefix(loc, "/reports?") {
		t.Fatalf("expected redirect back to reports, got %q", loc)
	}
	if flash := sess.PopFlash(); flash == nil || flash.Kind != "error" {
		t.Fatalf("expected error flash, got %+v", flash)
	}
}
