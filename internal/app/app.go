package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tafa1618/Copilot-Process/internal/config"
	"github.com/tafa1618/Copilot-Process/internal/dataprocessing"
	apperrors "github.com/tafa1618/Copilot-Process/internal/errors"
	"github.com/tafa1618/Copilot-Process/internal/infrastructure"
	customMiddleware "github.com/tafa1618/Copilot-Process/internal/middleware"
	"github.com/tafa1618/Copilot-Process/internal/operations"
	"github.com/tafa1618/Copilot-Process/internal/services"
	handlers "github.com/tafa1618/Copilot-Process/internal/transport/http"
	"github.com/tafa1618/Copilot-Process/pkg/contracts"
)

// Build metadata. Release builds stamp contracts.BuildTime with -ldflags;
// otherwise the process start time stands in.
var (
	VERSION   = contracts.Version
	BuildTime = buildTime()
	BuildID   = generateBuildID()
)

func buildTime() string {
	if contracts.BuildTime != "unknown" {
		return contracts.BuildTime
	}
	return time.Now().Format(time.RFC3339)
}

// AppName is logged at startup.
const AppName = "Copilot Process KPI"

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(VERSION + BuildTime))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application wires configuration, the analysis pipeline and the HTTP host.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Analysis      *services.AnalysisService
	Health        *services.HealthService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	runtime *infrastructure.RuntimeCollector
}

// NewApplication loads configuration and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("build_id", BuildID))

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	return New(cfg, providers, logger)
}

// New builds the application from explicit dependencies. providers may be
// nil, in which case tracing and metrics are no-ops.
func New(cfg *config.Config, providers *infrastructure.OTelProviders, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	analysis, err := BuildAnalysisService(cfg.Analysis, providers, logger)
	if err != nil {
		return nil, err
	}

	app := &Application{
		Config:        cfg,
		Analysis:      analysis,
		Health:        services.NewHealthService(VERSION, BuildTime, analysis, logger),
		Logger:        logger,
		OTelProviders: providers,
	}

	if providers != nil && providers.Meter != nil {
		collector, err := infrastructure.NewRuntimeCollector(providers.Meter, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to create runtime collector: %w", err)
		}
		app.runtime = collector
	}

	if err := app.setupRouter(); err != nil {
		return nil, err
	}
	app.createServer()
	return app, nil
}

// BuildAnalysisService assembles catalog, stage registry, tracer, cache and
// parser into an analysis service. Shared by the web host and the batch
// processor.
func BuildAnalysisService(cfg config.AnalysisConfig, providers *infrastructure.OTelProviders, logger *slog.Logger) (*services.AnalysisService, error) {
	catalog, err := config.LoadCatalog(cfg.ColumnCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load column catalog: %w", err)
	}

	registry, err := operations.DefaultRegistry(catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	tracer, err := operations.NewRunTracer(providers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run tracer: %w", err)
	}

	manager := operations.NewManager(registry, tracer, operations.NewSessionCache(), logger)
	return services.NewAnalysisService(manager, dataprocessing.NewParser(logger), services.NewParamsValidator(), logger), nil
}

func (a *Application) setupRouter() error {
	errorHandler := apperrors.NewErrorHandler(a.Logger, false)

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}

	analysisHandler := handlers.NewAnalysisHandler(a.Analysis, errorHandler, a.Logger)
	analysisHandler.SetDefaultManufacturer(a.Config.Analysis.Manufacturer)
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	guard := customMiddleware.NewRequestGuard(errorHandler, a.Config.Analysis.MaxUploadBytes, a.Logger)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Server.RequestTimeout > 0 {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		}

		r.Route("/api", func(r chi.Router) {
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)

			r.Group(func(r chi.Router) {
				if rl := a.Config.Server.RateLimit; rl.Enabled {
					r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
				}

				r.With(guard.ContentTypeValidator("multipart/form-data"), guard.MaxBodySize).
					Post("/analysis", analysisHandler.Analyze)
				analysisHandler.RegisterRoutes(r)
			})
		})
	})

	if a.OTelProviders != nil && a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

func (a *Application) createServer() {
	writeTimeout := a.Config.Server.WriteTimeout
	// A response must be allowed to outlive the request deadline.
	if rt := a.Config.Server.RequestTimeout; rt > 0 && writeTimeout <= rt {
		writeTimeout = rt + 10*time.Second
	}

	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts background collectors and the HTTP server. Serve errors
// other than a clean close cancel ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.serve(ctx, cancel, listener)
}

func (a *Application) serve(ctx context.Context, cancel context.CancelFunc, listener net.Listener) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("address", listener.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	if a.runtime != nil {
		go a.runtime.Run(ctx)
	}

	go func() {
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(runCtx, cancel); err != nil {
		return err
	}

	<-runCtx.Done()
	a.Logger.Info("Received shutdown signal")

	// The run context is already done; shutdown gets its own deadline.
	return a.Stop(context.Background())
}
