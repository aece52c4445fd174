package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/buensabor/buensabor-web/internal/abm"
	"github.com/buensabor/buensabor-web/internal/account"
	"github.com/buensabor/buensabor-web/internal/auth"
	"github.com/buensabor/buensabor-web/internal/observability"
	"github.com/buensabor/buensabor-web/internal/orders"
	"github.com/buensabor/buensabor-web/internal/platform/httpx"
	"github.com/buensabor/buensabor-web/internal/rbac"
	"github.com/buensabor/buensabor-web/internal/reports"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
	"github.com/buensabor/buensabor-web/jobs"
	"github.com/buensabor/buensabor-web/web"
)

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
	// Optional checks are reported but never fail readiness.
	Optional bool
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler    *auth.Handler
	ABMHandler     *abm.Handler
	OrdersHandler  *orders.Handler
	ReportsHandler *reports.Handler
	AccountHandler *account.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
	Readiness      []ReadinessCheck
}

// NewRouter constructs the chi.Router with the application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Readiness))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	// Probes and assets above skip sessions, CSRF and rate limiting.
	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			auth, ok := shared.AuthFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			http.Redirect(w, r, shared.HomePath(auth.Claims.Role), http.StatusSeeOther)
		})

		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
		}
		if params.ABMHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireRole(shared.RoleAdmin))
				params.ABMHandler.MountRoutes(r)
			})
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(r)
		}
		if params.AccountHandler != nil {
			params.AccountHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireRole(shared.RoleAdmin))
				params.JobHandler.MountRoutes(r)
			})
		}

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			renderError(w, r, params, http.StatusNotFound)
		})
	})

	return r
}

func renderError(w http.ResponseWriter, r *http.Request, params RouterParams, status int) {
	data := view.Base(r, "Error", "", map[string]any{
		"Status":  status,
		"Message": shared.StatusMessage(status),
	})
	if err := params.Templates.RenderStatus(w, status, "pages/error.html", data); err != nil {
		params.Logger.Error("render error page", slog.Any("error", err))
		http.Error(w, http.StatusText(status), status)
	}
}

type readinessResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// readinessHandler probes every dependency in parallel with a short deadline.
func readinessHandler(checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make([]string, len(checks))
		var g errgroup.Group
		for i, check := range checks {
			g.Go(func() error {
				if err := check.Ping(ctx); err != nil {
					results[i] = err.Error()
					return nil
				}
				results[i] = "ok"
				return nil
			})
		}
		_ = g.Wait()

		out := readinessResult{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for i, check := range checks {
			out.Checks[check.Name] = results[i]
			if results[i] != "ok" && !check.Optional {
				out.Status = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}
		httpx.JSON(w, status, out)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
