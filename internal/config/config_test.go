package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.TrialWindowDays != 7 {
		t.Errorf("expected default trial window of 7 days, got %d", cfg.TrialWindowDays)
	}
	if cfg.SweepInterval != time.Hour {
		t.Errorf("expected default sweep interval of 1h, got %s", cfg.SweepInterval)
	}
	if cfg.ReminderRetentionDays != 30 {
		t.Errorf("expected default retention of 30 days, got %d", cfg.ReminderRetentionDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SLOT_CAPACITY", "5")
	t.Setenv("REMINDER_SWEEP_INTERVAL", "15m")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port override, got %s", cfg.Port)
	}
	if cfg.SlotCapacity != 5 {
		t.Errorf("expected slot capacity 5, got %d", cfg.SlotCapacity)
	}
	if cfg.SweepInterval != 15*time.Minute {
		t.Errorf("expected 15m sweep interval, got %s", cfg.SweepInterval)
	}
	if !cfg.RedisTLS {
		t.Error("expected RedisTLS to be true")
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	if cfg.Location() != time.UTC {
		t.Error("expected UTC fallback for unknown timezone")
	}
}
