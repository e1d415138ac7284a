package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bjjmingo/academy-platform/internal/api/router"
	"github.com/bjjmingo/academy-platform/internal/app/bootstrap"
	"github.com/bjjmingo/academy-platform/internal/booking"
	appconfig "github.com/bjjmingo/academy-platform/internal/config"
	"github.com/bjjmingo/academy-platform/internal/conversation"
	"github.com/bjjmingo/academy-platform/internal/engine"
	"github.com/bjjmingo/academy-platform/internal/http/handlers"
	"github.com/bjjmingo/academy-platform/internal/intent"
	"github.com/bjjmingo/academy-platform/internal/leads"
	"github.com/bjjmingo/academy-platform/internal/notify"
	"github.com/bjjmingo/academy-platform/internal/observability/metrics"
	"github.com/bjjmingo/academy-platform/internal/reminders"
	"github.com/bjjmingo/academy-platform/internal/schedule"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting academy-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	academyStore := bootstrap.BuildAcademyStore(redisClient)

	loc := cfg.Location()
	catalog := schedule.DefaultCatalog(loc)

	leadsRepo := leads.NewPostgresRepository(pool)
	stateMachine := leads.NewStateMachine(nil, logger)
	historyStore := conversation.NewStore(pool)

	staff := bootstrap.BuildStaffDispatcher(cfg, engineMetrics, logger)

	var info booking.InfoProvider
	if academyStore != nil {
		info = academyStore
	}
	bookingStore := booking.NewPostgresStore(pool)
	bookingSvc := booking.NewService(bookingStore, leadsRepo, stateMachine, catalog, info, staff, booking.Config{
		TrialWindowDays: cfg.TrialWindowDays,
		SlotCapacity:    cfg.SlotCapacity,
	}, engineMetrics, logger)

	reminderStore := reminders.NewStore(pool)
	reminderSched := reminders.NewScheduler(reminderStore, catalog, logger)

	eng := engine.NewEngine(
		leadsRepo,
		stateMachine,
		historyStore,
		intent.NewDetector(intent.DefaultLexicon()),
		schedule.NewResolver(catalog, schedule.DefaultLexicon()),
		schedule.NewCalculator(catalog, time.Now),
		catalog,
		bookingSvc,
		reminderSched,
		engine.NewRuleResponder(catalog),
		engineMetrics,
		logger,
	).WithSlotWindowDays(cfg.SlotWindowDays)

	// The sweep worker doubles as the handler behind the manual sweep route.
	var wa notify.WhatsAppSender
	if sender := bootstrap.BuildWhatsAppSender(cfg, logger); sender != nil {
		wa = sender
	}
	var email notify.EmailSender
	if sender := bootstrap.BuildEmailSender(cfg, logger); sender != nil {
		email = sender
	}
	sweepWorker := reminders.NewWorker(reminderStore, leadsRepo, catalog, wa, email, engineMetrics, logger)

	webhookHandler := handlers.NewWhatsAppWebhookHandler(eng, cfg.TwilioAuthToken, cfg.TwilioWebhookURL, logger)
	adminHandler := handlers.NewAdminHandler(eng, bookingStore, sweepWorker, cfg.SlotCapacity, logger).
		WithPendingCounter(reminderStore)

	r := router.New(&router.Config{
		Logger:         logger,
		Webhook:        webhookHandler,
		Admin:          adminHandler,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminToken:     cfg.AdminToken,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
