package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bjjmingo/academy-platform/internal/app/bootstrap"
	appconfig "github.com/bjjmingo/academy-platform/internal/config"
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
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("reminder worker requires DATABASE_URL")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	engineMetrics := metrics.NewEngineMetrics(prometheus.NewRegistry())

	var wa notify.WhatsAppSender
	if sender := bootstrap.BuildWhatsAppSender(cfg, logger); sender != nil {
		wa = sender
	}
	var email notify.EmailSender
	if sender := bootstrap.BuildEmailSender(cfg, logger); sender != nil {
		email = sender
	}

	catalog := schedule.DefaultCatalog(cfg.Location())
	store := reminders.NewStore(pool)
	leadsRepo := leads.NewPostgresRepository(pool)

	worker := reminders.NewWorker(store, leadsRepo, catalog, wa, email, engineMetrics, logger).
		WithInterval(cfg.SweepInterval).
		WithRetention(time.Duration(cfg.ReminderRetentionDays) * 24 * time.Hour)

	go worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("reminder worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
