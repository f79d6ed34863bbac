package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Reminder.Interval != 15*time.Minute {
		t.Errorf("reminder interval = %s, want 15m", cfg.Reminder.Interval)
	}
	if cfg.Reminder.Cooldown != 24*time.Hour {
		t.Errorf("cooldown = %s, want 24h", cfg.Reminder.Cooldown)
	}
	if cfg.Reminder.SLA.Urgent != 2*time.Hour || cfg.Reminder.SLA.Low != 48*time.Hour {
		t.Errorf("SLA defaults wrong: %+v", cfg.Reminder.SLA)
	}
	if cfg.Decision.Thresholds.Urgent != 90 || cfg.Decision.Thresholds.Medium != 40 {
		t.Errorf("threshold defaults wrong: %+v", cfg.Decision.Thresholds)
	}
}

func TestLoadFrom_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calldeck.yaml")
	content := `server:
  port: "9090"
reminder:
  interval: 5m
  cooldown: 12h
decision:
  thresholds:
    urgent: 95
    high: 75
    medium: 50
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %s, want 9090", cfg.Server.Port)
	}
	if cfg.Reminder.Interval != 5*time.Minute {
		t.Errorf("interval = %s, want 5m", cfg.Reminder.Interval)
	}
	if cfg.Decision.Thresholds.High != 75 {
		t.Errorf("high threshold = %d, want 75", cfg.Decision.Thresholds.High)
	}
	// Untouched keys keep their defaults.
	if cfg.Reminder.MaxConcurrent != 4 {
		t.Errorf("max_concurrent = %d, want the default 4", cfg.Reminder.MaxConcurrent)
	}
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calldeck.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CALLDECK_PORT", "7070")
	t.Setenv("CALLDECK_REMINDER_INTERVAL", "1m")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %s, want the env value 7070", cfg.Server.Port)
	}
	if cfg.Reminder.Interval != time.Minute {
		t.Errorf("interval = %s, want 1m", cfg.Reminder.Interval)
	}
}

func TestLoadFrom_RejectsBadThresholdOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calldeck.yaml")
	content := `decision:
  thresholds:
    urgent: 50
    high: 80
    medium: 40
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error for high > urgent")
	}
}

func TestLoadFrom_RejectsNonPositiveInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calldeck.yaml")
	if err := os.WriteFile(path, []byte("reminder:\n  interval: 0s\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error for a zero interval")
	}
}

func TestSLA_ThresholdFor(t *testing.T) {
	s := SLA{Urgent: 2 * time.Hour, High: 6 * time.Hour, Medium: 24 * time.Hour, Low: 48 * time.Hour}
	if got := s.ThresholdFor("urgent"); got != 2*time.Hour {
		t.Errorf("urgent = %s", got)
	}
	if got := s.ThresholdFor("low"); got != 48*time.Hour {
		t.Errorf("low = %s", got)
	}
	if got := s.ThresholdFor("unknown"); got != 24*time.Hour {
		t.Errorf("unknown should fall back to medium, got %s", got)
	}
}
