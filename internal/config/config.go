package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Timezone is the academy's fixed local timezone. All schedule math
	// happens in this location.
	Timezone string

	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
	TwilioWebhookURL   string
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	NotifyEmailSubject string
	PrimaryWhatsApp    string
	SecondaryWhatsApp  string
	NotificationEmail  string

	// AdminToken guards the admin API routes. Empty disables the check.
	AdminToken string

	TrialWindowDays       int
	SlotCapacity          int
	SlotWindowDays        int
	SweepInterval         time.Duration
	ReminderRetentionDays int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		Timezone: getEnv("ACADEMY_TIMEZONE", "America/Costa_Rica"),

		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_NUMBER", ""),
		TwilioWebhookURL:   getEnv("TWILIO_WEBHOOK_URL", ""),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "Academy Assistant"),
		NotifyEmailSubject: getEnv("NOTIFY_EMAIL_SUBJECT", "New trial booking"),
		PrimaryWhatsApp:    getEnv("NOTIFY_PRIMARY_WHATSAPP", ""),
		SecondaryWhatsApp:  getEnv("NOTIFY_SECONDARY_WHATSAPP", ""),
		NotificationEmail:  getEnv("NOTIFY_EMAIL", ""),

		AdminToken: getEnv("ADMIN_API_TOKEN", ""),

		TrialWindowDays:       getEnvAsInt("TRIAL_WINDOW_DAYS", 7),
		SlotCapacity:          getEnvAsInt("SLOT_CAPACITY", 12),
		SlotWindowDays:        getEnvAsInt("SLOT_WINDOW_DAYS", 14),
		SweepInterval:         getEnvAsDuration("REMINDER_SWEEP_INTERVAL", time.Hour),
		ReminderRetentionDays: getEnvAsInt("REMINDER_RETENTION_DAYS", 30),
	}
}

// Location resolves the configured timezone, falling back to UTC when the
// name cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
