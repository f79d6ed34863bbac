package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/calldeck/calldeck/internal/adapter/crmhttp"
	"github.com/calldeck/calldeck/internal/adapter/crmnoop"
	"github.com/calldeck/calldeck/internal/adapter/email"
	cdhttp "github.com/calldeck/calldeck/internal/adapter/http"
	cdnats "github.com/calldeck/calldeck/internal/adapter/nats"
	cdotel "github.com/calldeck/calldeck/internal/adapter/otel"
	"github.com/calldeck/calldeck/internal/adapter/postgres"
	"github.com/calldeck/calldeck/internal/adapter/ristretto"
	"github.com/calldeck/calldeck/internal/adapter/slack"
	"github.com/calldeck/calldeck/internal/config"
	"github.com/calldeck/calldeck/internal/domain/decision"
	"github.com/calldeck/calldeck/internal/domain/rules"
	"github.com/calldeck/calldeck/internal/logger"
	"github.com/calldeck/calldeck/internal/middleware"
	"github.com/calldeck/calldeck/internal/port/crm"
	"github.com/calldeck/calldeck/internal/port/notifier"
	"github.com/calldeck/calldeck/internal/resilience"
	"github.com/calldeck/calldeck/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"reminder_interval", cfg.Reminder.Interval,
	)

	ctx := context.Background()

	// --- Telemetry ---
	otelShutdown, err := cdotel.Init(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	metrics, err := cdotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := cdnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Drain() }()

	// Case read cache
	readCache, err := ristretto.New(cfg.Cache.MaxCostBytes)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer readCache.Close()

	// --- Decision policy ---
	ruleSet, err := rules.Load(cfg.Decision.RulesFile)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	engine := decision.NewEngine(ruleSet, cfg.Decision.Thresholds, cfg.Decision.Confidence, cfg.Decision.Routing)
	slog.Info("decision engine ready", "rules", len(ruleSet.Rules))

	// --- Gateways ---
	notifiers := []notifier.Notifier{
		slack.NewNotifier(cfg.Slack.WebhookURL),
		email.NewNotifier(cfg.SMTP),
	}
	notifySvc := service.NewNotificationService(notifiers)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	var crmConnector crm.Connector = crmnoop.NewConnector()
	if cfg.CRM.Endpoint != "" {
		crmConnector = crmhttp.NewConnector(cfg.CRM)
	}

	// --- Services ---
	store := postgres.NewStore(pool)
	events := postgres.NewEventStore(pool)

	caseSvc := service.NewCaseService(store, events, readCache, cfg.Cache.TTL)
	intakeSvc := service.NewIntakeService(engine, store, events, queue, readCache, notifySvc, metrics)
	approvalSvc := service.NewApprovalService(store, events, queue, readCache, metrics)
	reminderSvc := service.NewReminderService(store, notifySvc, breaker, events, queue, metrics, cfg.Reminder)
	crmSyncSvc := service.NewCRMSyncService(crmConnector, store, queue)

	reminderSvc.Start(ctx)
	defer reminderSvc.Stop()

	if err := crmSyncSvc.Start(ctx); err != nil {
		return fmt.Errorf("crm sync: %w", err)
	}
	defer crmSyncSvc.Stop()

	// --- HTTP ---
	handlers := &cdhttp.Handlers{
		Intake:    intakeSvc,
		Cases:     caseSvc,
		Approvals: approvalSvc,
		CRMSync:   crmSyncSvc,
		Queue:     queue,
		Breaker:   breaker,
		Pool:      pool,
	}

	r := chi.NewRouter()

	r.Use(cdhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cdotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(middleware.RequestID)
	r.Use(cdhttp.Logger)
	r.Use(cdhttp.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	cdhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
