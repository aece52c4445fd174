package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/buensabor/buensabor-web/internal/abm"
	"github.com/buensabor/buensabor-web/internal/account"
	"github.com/buensabor/buensabor-web/internal/app"
	"github.com/buensabor/buensabor-web/internal/auth"
	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/observability"
	"github.com/buensabor/buensabor-web/internal/orders"
	"github.com/buensabor/buensabor-web/internal/platform/cache"
	"github.com/buensabor/buensabor-web/internal/rbac"
	"github.com/buensabor/buensabor-web/internal/reports"
	"github.com/buensabor/buensabor-web/internal/services"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
	"github.com/buensabor/buensabor-web/jobs"
	"github.com/buensabor/buensabor-web/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.Open(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "buensabor_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("load templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	client := backend.New(backend.Options{
		BaseURL:         cfg.BackendURL,
		Timeout:         cfg.BackendTimeout,
		BreakerFailures: cfg.BackendBreakerFailures,
		BreakerCooldown: cfg.BackendBreakerCooldown,
		Logger:          logger,
		Observer:        metrics,
		OnUnauthorized:  auth.ForgetOnUnauthorized,
	})
	registry := services.NewRegistry(client)
	guard := rbac.Middleware{Logger: logger, Templates: templates}

	authService := auth.NewService(client, registry.Profile, cfg.SessionTTL)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, cfg.PublicURL)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("job inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	submitter := abm.NewSubmitter(registry, jobClient, logger, cfg.PublicURL+"/login")
	abmHandler := abm.NewHandler(logger, registry, abm.NewListController(registry, logger), submitter, templates, csrfManager).
		WithIdempotency(shared.NewIdempotencyStore(redisClient, 24*time.Hour))

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL, metrics)
	reportService := reports.NewService(registry.Reports, reportCache, logger)
	pdfClient := report.NewClient(cfg.GotenbergURL)
	var pdfRenderer reports.PDFRenderer
	if cfg.GotenbergURL != "" {
		pdfRenderer = pdfClient
	}
	reportsHandler := reports.NewHandler(logger, reportService, templates, csrfManager, guard, pdfRenderer)

	hub := orders.NewHub(logger)
	go hub.Run(ctx)
	orderService := orders.NewService(registry.Orders, hub, metrics, reportService, logger)
	ordersHandler := orders.NewHandler(logger, orderService, hub, templates, csrfManager, guard, cfg.PublicURL)

	accountHandler := account.NewHandler(logger, account.NewService(registry.Profile, registry.Addresses), templates, csrfManager, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		RBACMiddleware: guard,
		AuthHandler:    authHandler,
		ABMHandler:     abmHandler,
		OrdersHandler:  ordersHandler,
		ReportsHandler: reportsHandler,
		AccountHandler: accountHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
		Readiness: []app.ReadinessCheck{
			{Name: "redis", Ping: cache.Probe(redisClient)},
			{Name: "backend", Ping: client.Ready},
			{Name: "gotenberg", Ping: pdfClient.Ping, Optional: true},
		},
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
