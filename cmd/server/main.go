package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/mosesmbadi/easymed-sub000/internal/application/payment"
	"github.com/mosesmbadi/easymed-sub000/internal/application/referencedata"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/cache"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/config"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/event"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/hmis"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/logger"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/storage"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/telemetry"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/handler"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/middleware"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry providers start before the rest so that log export and
	// instrumented clients pick up the global providers.
	providers, err := telemetry.Setup(ctx, telemetry.Settings{
		Exporter: telemetry.Exporter{
			Endpoint:       cfg.Telemetry.CollectorEndpoint,
			Insecure:       cfg.Telemetry.Insecure,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: version,
		},
		Tracing:         cfg.Telemetry.Enabled,
		SamplingRatio:   cfg.Telemetry.SamplingRatio,
		Metrics:         cfg.Telemetry.MetricsEnabled,
		MetricsInterval: cfg.Telemetry.MetricsInterval,
		Logs:            cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	tp, mp, lp := providers.Traces, providers.Metrics, providers.Logs
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		Memory:          true,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", zap.Error(err))
	}
	if profiler != nil && profiler.IsEnabled() {
		if err := tp.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	// Rebuild the logger so that every entry is also exported to the collector.
	log, err = logger.New(logCfg, logger.WithCore(lp.ZapCore(logger.ParseLevel(cfg.Log.Level))))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting billing desk service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	paymentMetrics, err := telemetry.NewPaymentMetrics(mp.Meter("easymed-billing/payment"))
	if err != nil {
		log.Fatal("Failed to create payment metrics", zap.Error(err))
	}

	stores, err := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	log.Info("Cache ready", zap.String("backend", stores.Backend))

	receiptStore, err := storage.NewReceiptStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize receipt storage", zap.Error(err))
	}

	hmisClient, err := hmis.NewClient(hmis.Config{
		BaseURL: cfg.HMIS.BaseURL,
		Timeout: cfg.HMIS.Timeout,
	}, hmis.WithLogger(log), hmis.WithMetrics(paymentMetrics))
	if err != nil {
		log.Fatal("Failed to initialize HMIS client", zap.Error(err))
	}

	eventBus := event.NewInMemoryEventBus(log)
	invoiceInvalidator := paymentapp.NewInvoiceCacheInvalidator(stores.Cache, log)
	eventBus.Subscribe(
		event.NewIdempotentHandler(invoiceInvalidator, stores.Idempotency, log),
		invoiceInvalidator.EventTypes()...,
	)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	referenceService := referencedata.NewService(hmisClient, hmisClient, hmisClient, stores.Cache, cfg.Cache.ReferenceTTL, log)
	paymentService, err := paymentapp.NewService(paymentapp.Dependencies{
		Invoices:     hmisClient,
		Poster:       hmisClient,
		Receipts:     hmisClient,
		Modes:        referenceService,
		Suppliers:    hmisClient,
		ReceiptStore: receiptStore,
		Guard:        stores.Idempotency,
		Cache:        stores.Cache,
		Events:       eventBus,
		Metrics:      paymentMetrics,
		Logger:       log,
	}, paymentapp.Config{
		SessionTTL:    cfg.Session.TTL,
		SweepInterval: cfg.Session.SweepInterval,
		SubmitLockTTL: cfg.Session.SubmitLockTTL,
		InvoiceTTL:    cfg.Cache.InvoiceTTL,
		Location:      cfg.App.Location(),
		Currency:      cfg.App.Currency,
	})
	if err != nil {
		log.Fatal("Failed to initialize payment service", zap.Error(err))
	}

	handlers := router.Handlers{
		Sessions:  handler.NewPaymentSessionHandler(paymentService),
		Reference: handler.NewReferenceHandler(referenceService),
		Receipts:  handler.NewReceiptHandler(paymentService),
		Suppliers: handler.NewSupplierHandler(paymentService),
		System: handler.NewSystemHandler(cfg.App.Name, version,
			handler.WithReadinessCheck("cache", stores.Ping),
			handler.WithSessionCounter(paymentService.Sessions),
		),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Logger and Recovery - Log requests, catch panics
	// 3. Tracing, metrics and profiling labels
	// 4. Security headers, CORS and body size limit
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.IsEnabled(),
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(mp.Meter("easymed-billing/http"), log),
		middleware.ProfilingWithConfig(middleware.ProfilingConfig{
			Enabled:          profiler != nil && profiler.IsEnabled(),
			SkipPathPrefixes: []string{"/health"},
		}),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	router.RegisterHealth(engine, handlers.System)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.BearerAuth(middleware.AuthConfig{Logger: log}),
		middleware.TracingAttributeInjector(),
	)
	r.Register(router.DomainGroups(handlers)...)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	paymentService.Close()
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := stores.Close(); err != nil {
		log.Error("Error closing cache", zap.Error(err))
	}
	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
