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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"ecompulse/internal/config"
	"ecompulse/internal/infrastructure"
	customMiddleware "ecompulse/internal/middleware"
	"ecompulse/internal/operations"
	"ecompulse/internal/services"
	handlers "ecompulse/internal/transport/http"
	ws "ecompulse/internal/websocket"
)

// metricsInterval is how often the system metrics collector samples the
// runtime.
const metricsInterval = 15 * time.Second

// Application wires configuration, observability, the pipeline manager, the
// progress hub, and the HTTP server into one runnable unit.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Hub           *ws.Hub
	Manager       *operations.Manager
	RunService    *services.RunService
	HealthService *services.HealthService
	Collector     *infrastructure.SystemMetricsCollector
	Router        *chi.Mux
	Server        *http.Server
}

// NewApplication creates a fully wired application from the environment and
// config file.
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
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", cfg.Server.Port),
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.String("output_dir", cfg.Paths.OutputDir))

	if err := ensureDirectories(cfg.Paths); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(nil, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize observability: %w", err)
	}

	meter := providers.Meter
	if meter == nil {
		meter = otel.Meter(infrastructure.MeterName)
	}

	collector, err := infrastructure.NewSystemMetricsCollector(meter, metricsInterval)
	if err != nil {
		return nil, fmt.Errorf("create system metrics collector: %w", err)
	}

	hub := ws.NewHub(cfg.WebSocket, logger)
	manager := operations.NewManager(cfg.Analysis, cfg.Paths.OutputDir, hub, logger)

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Hub:           hub,
		Manager:       manager,
		RunService:    services.NewRunService(manager, cfg.Paths, logger),
		HealthService: services.NewHealthService(config.AppVersion, cfg.Paths, manager, hub, collector, logger),
		Collector:     collector,
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func ensureDirectories(paths config.PathsConfig) error {
	for _, dir := range []string{paths.OutputDir, paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware ahead of the WebSocket route; nothing here wraps
	// the ResponseWriter, so the upgrade hijack stays possible.
	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)

	runHandler := handlers.NewRunHandler(a.RunService, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	artifactHandler := handlers.NewArtifactHandler(a.RunService, a.Logger)
	wsHandler := handlers.NewWebSocketHandler(a.Hub, a.Config.WebSocket, a.Logger)

	r.Get(config.WebSocketEndpoint, wsHandler.ServeProgress)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("otel middleware disabled", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Recoverer(a.Logger))

		r.Get(config.HealthEndpoint, healthHandler.HealthCheck)

		r.Route(config.APIBasePath, func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Mount("/runs", runHandler.Routes())
			r.Mount("/health", healthHandler.Routes())
			r.Get("/stages", runHandler.ListStages)
		})

		r.Get("/dashboard/{runID}", artifactHandler.ServeDashboard)
		r.Get("/reports/{runID}/*", artifactHandler.ServeReport)
	})

	// Outside the middleware group: scrape traffic should not hit the rate
	// limiter or produce request spans.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start runs the server and its background workers until the context is
// cancelled or a component fails.
func (a *Application) Start(ctx context.Context) error {
	a.Hub.Start()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "http server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.Collector.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.Stop()
	})

	return g.Wait()
}

// Stop shuts the application down gracefully within the configured timeout.
func (a *Application) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.Logger.InfoContext(ctx, "shutting down")

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.Hub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}

	a.Logger.Info("shutdown complete")
	return errors.Join(errs...)
}

// Run starts the application and blocks until an interrupt or a component
// failure.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Start(ctx)
}
