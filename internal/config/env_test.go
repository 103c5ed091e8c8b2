package config

import (
	"testing"
	"time"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CARRUS_ENABLED", "false")
	t.Setenv("CARRUS_METHOD", "slack")
	t.Setenv("CARRUS_INTERVAL_HOURS", "12")
	t.Setenv("CARRUS_NOTIFY_TIMEOUT", "5s")
	t.Setenv("CARRUS_SLACK_WEBHOOK", "https://hooks.slack.com/services/T/B/X")
	t.Setenv("CARRUS_SLACK_CHANNEL", "#updates")
	t.Setenv("CARRUS_EMAIL_TO", "a@example.com, b@example.com")
	t.Setenv("CARRUS_DB_PATH", "/tmp/carrus.db")
	t.Setenv("CARRUS_METRICS_ENABLED", "true")
	t.Setenv("CARRUS_METRICS_PORT", "9999")

	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("ApplyEnvOverrides failed: %v", err)
	}

	if cfg.Enabled {
		t.Error("enabled should be overridden to false")
	}
	if cfg.Method != MethodSlack {
		t.Errorf("method = %q, want slack", cfg.Method)
	}
	if cfg.IntervalHours != 12 {
		t.Errorf("interval = %d, want 12", cfg.IntervalHours)
	}
	if cfg.NotifyTimeout.Std() != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.NotifyTimeout)
	}
	if cfg.SlackWebhookURL == "" || cfg.SlackChannel != "#updates" {
		t.Errorf("slack settings not applied: %+v", cfg)
	}
	if len(cfg.EmailTo) != 2 || cfg.EmailTo[1] != "b@example.com" {
		t.Errorf("email recipients = %v", cfg.EmailTo)
	}
	if cfg.DBPath != "/tmp/carrus.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if !cfg.MetricsEnabled || cfg.MetricsPort != 9999 {
		t.Errorf("metrics settings not applied: %+v", cfg)
	}
}

func TestApplyEnvOverridesInvalidMethod(t *testing.T) {
	t.Setenv("CARRUS_METHOD", "telepathy")
	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err == nil {
		t.Error("expected error for invalid CARRUS_METHOD")
	}
}

func TestApplyEnvOverridesInvalidBool(t *testing.T) {
	t.Setenv("CARRUS_ENABLED", "maybe")
	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err == nil {
		t.Error("expected error for invalid CARRUS_ENABLED")
	}
}

func TestApplyEnvOverridesInvalidInterval(t *testing.T) {
	t.Setenv("CARRUS_INTERVAL_HOURS", "daily")
	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err == nil {
		t.Error("expected error for invalid CARRUS_INTERVAL_HOURS")
	}
}
