package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relnotes/internal/config"
	apierrors "relnotes/internal/errors"
	"relnotes/internal/infrastructure"
	customMiddleware "relnotes/internal/middleware"
	"relnotes/internal/services"
	transport "relnotes/internal/transport/http"
	"relnotes/pkg/contracts"
)

// Build information, overridable via ldflags.
var (
	Version   = contracts.Version
	BuildTime = contracts.BuildTime
)

const appName = "relnotes"

// Application is the main application container.
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	ReleaseService *services.ReleaseService
	HealthService  *services.HealthService
	Logger         *slog.Logger
	ErrorHandler   *apierrors.ErrorHandler
	OTelProviders  *infrastructure.OTelProviders
	otelMiddleware *customMiddleware.OTelMiddleware
}

// NewApplication creates a fully wired application instance.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", appName),
		slog.String("version", Version))

	app := &Application{
		Config:       cfg,
		Logger:       logger,
		ErrorHandler: apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.ServiceName = appName
	otelCfg.ServiceVersion = Version
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		// Telemetry is best effort; the API works without it.
		logger.Warn("telemetry disabled", slog.String("error", err.Error()))
	} else {
		app.OTelProviders = providers
		otelMW, err := customMiddleware.NewOTelMiddleware(providers)
		if err != nil {
			logger.Warn("telemetry middleware disabled", slog.String("error", err.Error()))
		} else {
			app.otelMiddleware = otelMW
		}
	}

	app.ReleaseService = services.NewReleaseServiceWithLogger(cfg, logger)
	if app.otelMiddleware != nil {
		app.ReleaseService.SetMetrics(app.otelMiddleware.Metrics())
	}
	app.HealthService = services.NewHealthService(Version, BuildTime, app.ReleaseService, logger)

	app.setupRouter()
	app.createServer()
	return app, nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	if a.otelMiddleware != nil {
		r.Use(a.otelMiddleware.Handler)
	}
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		}))
	}
	if a.Config.Security.RateLimit.Enabled {
		limiter := customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		)
		r.Use(limiter.Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	healthHandler := transport.NewHealthHandler(a.HealthService, Version, a.Logger)
	releaseHandler := transport.NewReleaseHandler(a.ReleaseService, a.Config.Ingest.ExportFile, a.Logger, a.ErrorHandler)
	exportHandler := transport.NewExportHandler(a.ReleaseService, a.Logger, a.ErrorHandler)

	r.Route("/api", func(api chi.Router) {
		api.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))
		api.Get("/health", healthHandler.GetHealth)
		api.Get("/version", healthHandler.GetVersion)
		api.Mount("/export", exportHandler.Routes())
		api.Mount("/", releaseHandler.Routes())
	})

	// Prometheus scrape endpoint, kept outside /api so edge proxies can
	// exempt it from the API rate limits.
	r.Handle("/metrics", promhttp.Handler())

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start ingests the configured export file and starts the HTTP server.
// A failed startup ingest leaves the API serving in degraded mode; a
// failed listen cancels the run context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", appName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port))

	if a.Config.Ingest.IngestOnStart {
		if _, err := a.ReleaseService.IngestFile(ctx, a.Config.Ingest.ExportFile); err != nil {
			a.Logger.WarnContext(ctx, "startup ingest failed, serving without data",
				slog.String("export_file", a.Config.Ingest.ExportFile),
				slog.String("error", err.Error()))
		}
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "log file close error", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
