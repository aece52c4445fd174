package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/rbac"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
)

const (
	requestTimeout = 10 * time.Second
	pdfTimeout     = 40 * time.Second
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler serves /reports and its exports.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     rbac.Middleware
	pdf       PDFRenderer
	rateLimit func(http.Handler) http.Handler
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the reports handler. pdf may be nil to disable the
// PDF export.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, guard rbac.Middleware, pdf PDFRenderer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		guard:     guard,
		pdf:       pdf,
		now:       time.Now,
	}
	h.rateLimit = httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(exportKey))
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func exportKey(r *http.Request) (string, error) {
	if auth, ok := shared.AuthFromContext(r.Context()); ok && auth.Claims.UserID != "" {
		return "user:" + auth.Claims.UserID, nil
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr, nil
	}
	return "ip:" + host, nil
}

// MountRoutes registers the admin-only report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(h.guard.RequireRole(shared.RoleAdmin))
		r.Get("/", h.dashboard)
		r.Group(func(r chi.Router) {
			r.Use(h.rateLimit)
			r.Get("/revenue.xlsx", h.revenueExcel)
			r.Get("/rankings.xlsx", h.rankingsExcel)
			r.Get("/export.csv", h.exportCSV)
			r.Get("/pdf", h.exportPDF)
		})
	})
}

type dashboardPage struct {
	Start     string
	End       string
	Query     string
	Dashboard Dashboard
	Charts    Charts
	Error     string
	PDF       bool
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data dashboardPage) {
	sess := shared.SessionFromContext(r.Context())
	token, _ := h.csrf.EnsureToken(r.Context(), sess)
	if err := h.templates.RenderStatus(w, status, "pages/reports.html", view.Base(r, "Reportes", token, data)); err != nil {
		h.logger.Error("render reports", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseRange(r.URL.Query(), h.now())
	page := dashboardPage{
		Start: r.URL.Query().Get("start_date"),
		End:   r.URL.Query().Get("end_date"),
		PDF:   h.pdf != nil,
	}
	if err != nil {
		page.Error = shared.UserMessage(err, "El rango de fechas no es válido.")
		h.render(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	page.Start = rng.Start.Format(dateLayout)
	page.End = rng.End.Format(dateLayout)
	page.Query = "?" + RangeQuery(rng)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	d, err := h.service.Dashboard(ctx, rng)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			shared.RedirectToLogin(w, r)
			return
		}
		h.logger.Error("load reports", slog.Any("error", err))
		page.Error = shared.UserMessage(err, "No pudimos cargar los reportes.")
		h.render(w, r, http.StatusOK, page)
		return
	}
	page.Dashboard = d
	charts, err := BuildCharts(d)
	if err != nil {
		h.logger.Error("render report charts", slog.Any("error", err))
	}
	page.Charts = charts
	h.render(w, r, http.StatusOK, page)
}

// exportRange parses the range of an export request, redirecting back to the
// dashboard on failure.
func (h *Handler) exportRange(w http.ResponseWriter, r *http.Request) (domain.DateRange, bool) {
	rng, err := ParseRange(r.URL.Query(), h.now())
	if err != nil {
		shared.RedirectWithFlash(w, r, "/reports", "error", shared.UserMessage(err, "El rango de fechas no es válido."))
		return rng, false
	}
	return rng, true
}

func (h *Handler) exportFailed(w http.ResponseWriter, r *http.Request, rng domain.DateRange, what string, err error) {
	if errors.Is(err, shared.ErrUnauthorized) {
		shared.RedirectToLogin(w, r)
		return
	}
	h.logger.Error("report export", slog.String("export", what), slog.Any("error", err))
	shared.RedirectWithFlash(w, r, "/reports?"+RangeQuery(rng), "error", shared.UserMessage(err, "No pudimos generar la exportación."))
}

func (h *Handler) loadExport(w http.ResponseWriter, r *http.Request, what string) (Dashboard, bool) {
	rng, ok := h.exportRange(w, r)
	if !ok {
		return Dashboard{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	d, err := h.service.Dashboard(ctx, rng)
	if err != nil {
		h.exportFailed(w, r, rng, what, err)
		return Dashboard{}, false
	}
	return d, true
}

func filename(prefix string, rng domain.DateRange, ext string) string {
	return fmt.Sprintf("%s-%s-%s.%s", prefix, rng.Start.Format(dateLayout), rng.End.Format(dateLayout), ext)
}

func attachment(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(body)
}

func (h *Handler) revenueExcel(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.exportRange(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	dl, err := h.service.RevenueExcel(ctx, rng)
	if err != nil {
		h.exportFailed(w, r, rng, "revenue.xlsx", err)
		return
	}
	contentType := dl.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = xlsxType
	}
	name := dl.Filename
	if name == "" {
		name = filename("ingresos", rng, "xlsx")
	}
	attachment(w, contentType, name, dl.Data)
}

func (h *Handler) rankingsExcel(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadExport(w, r, "rankings.xlsx")
	if !ok {
		return
	}
	body, err := RankingsWorkbook(d)
	if err != nil {
		h.exportFailed(w, r, d.Range, "rankings.xlsx", err)
		return
	}
	attachment(w, xlsxType, filename("rankings", d.Range, "xlsx"), body)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadExport(w, r, "csv")
	if !ok {
		return
	}
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer h.csvPool.Put(buf)
	if err := WriteCSV(buf, d); err != nil {
		h.exportFailed(w, r, d.Range, "csv", err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", filename("reportes", d.Range, "csv"), buf.Bytes())
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		shared.RedirectWithFlash(w, r, "/reports", "warning", "La exportación a PDF no está disponible.")
		return
	}
	d, ok := h.loadExport(w, r, "pdf")
	if !ok {
		return
	}
	charts, err := BuildCharts(d)
	if err != nil {
		h.logger.Warn("pdf charts", slog.Any("error", err))
	}
	ctx, cancel := context.WithTimeout(r.Context(), pdfTimeout)
	defer cancel()
	body, err := RenderPDF(ctx, h.templates, h.pdf, d, charts, h.now())
	if err != nil {
		h.exportFailed(w, r, d.Range, "pdf", err)
		return
	}
	attachment(w, "application/pdf", filename("reportes", d.Range, "pdf"), body)
}
