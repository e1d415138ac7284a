// Package bootstrap wires shared runtime dependencies for the binaries.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/bjjmingo/academy-platform/internal/academy"
	appconfig "github.com/bjjmingo/academy-platform/internal/config"
	"github.com/bjjmingo/academy-platform/internal/notify"
	"github.com/bjjmingo/academy-platform/internal/observability/metrics"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildAcademyStore returns the academy info store when Redis is available.
func BuildAcademyStore(redisClient *redis.Client) *academy.Store {
	if redisClient == nil {
		return nil
	}
	return academy.NewStore(redisClient)
}

// BuildWhatsAppSender returns a Twilio WhatsApp sender, or nil when the
// Twilio credentials are not configured.
func BuildWhatsAppSender(cfg *appconfig.Config, logger *logging.Logger) *notify.TwilioWhatsAppSender {
	if cfg == nil || cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioWhatsAppFrom == "" {
		return nil
	}
	return notify.NewTwilioWhatsAppSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom, logger)
}

// BuildEmailSender returns a SendGrid sender, or nil when no API key is set.
func BuildEmailSender(cfg *appconfig.Config, logger *logging.Logger) *notify.SendGridSender {
	if cfg == nil {
		return nil
	}
	return notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
}

// BuildStaffDispatcher assembles the staff notification chain from config.
func BuildStaffDispatcher(cfg *appconfig.Config, m *metrics.EngineMetrics, logger *logging.Logger) *notify.Dispatcher {
	var wa notify.WhatsAppSender
	if sender := BuildWhatsAppSender(cfg, logger); sender != nil {
		wa = sender
	}
	var email notify.EmailSender
	if sender := BuildEmailSender(cfg, logger); sender != nil {
		email = sender
	}
	return notify.NewStaffDispatcher(wa, email, cfg.PrimaryWhatsApp, cfg.SecondaryWhatsApp, cfg.NotificationEmail, m, logger)
}
