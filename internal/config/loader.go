package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "calldeck.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "CALLDECK_PORT")
	setString(&cfg.Server.CORSOrigin, "CALLDECK_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "CALLDECK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "CALLDECK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "CALLDECK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "CALLDECK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "CALLDECK_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.SMTP.Host, "CALLDECK_SMTP_HOST")
	setInt(&cfg.SMTP.Port, "CALLDECK_SMTP_PORT")
	setString(&cfg.SMTP.From, "CALLDECK_SMTP_FROM")
	setString(&cfg.SMTP.Password, "CALLDECK_SMTP_PASSWORD")
	setString(&cfg.Slack.WebhookURL, "CALLDECK_SLACK_WEBHOOK")
	setString(&cfg.CRM.Endpoint, "CALLDECK_CRM_ENDPOINT")
	setString(&cfg.CRM.APIKey, "CALLDECK_CRM_API_KEY")
	setDuration(&cfg.CRM.Timeout, "CALLDECK_CRM_TIMEOUT")
	setString(&cfg.Logging.Level, "CALLDECK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CALLDECK_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "CALLDECK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "CALLDECK_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxCostBytes, "CALLDECK_CACHE_MAX_COST")
	setDuration(&cfg.Cache.TTL, "CALLDECK_CACHE_TTL")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Decision.RulesFile, "CALLDECK_RULES_FILE")
	setInt(&cfg.Decision.Thresholds.Urgent, "CALLDECK_THRESHOLD_URGENT")
	setInt(&cfg.Decision.Thresholds.High, "CALLDECK_THRESHOLD_HIGH")
	setInt(&cfg.Decision.Thresholds.Medium, "CALLDECK_THRESHOLD_MEDIUM")
	setDuration(&cfg.Reminder.Interval, "CALLDECK_REMINDER_INTERVAL")
	setDuration(&cfg.Reminder.Cooldown, "CALLDECK_REMINDER_COOLDOWN")
	setDuration(&cfg.Reminder.SendTimeout, "CALLDECK_REMINDER_SEND_TIMEOUT")
	setInt(&cfg.Reminder.MaxConcurrent, "CALLDECK_REMINDER_MAX_CONCURRENT")
	setString(&cfg.Reminder.Recipient, "CALLDECK_REMINDER_RECIPIENT")
	setDuration(&cfg.Reminder.SLA.Urgent, "CALLDECK_SLA_URGENT")
	setDuration(&cfg.Reminder.SLA.High, "CALLDECK_SLA_HIGH")
	setDuration(&cfg.Reminder.SLA.Medium, "CALLDECK_SLA_MEDIUM")
	setDuration(&cfg.Reminder.SLA.Low, "CALLDECK_SLA_LOW")
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	t := cfg.Decision.Thresholds
	if t.Medium < 0 || t.Medium > t.High || t.High > t.Urgent || t.Urgent > 100 {
		return errors.New("decision.thresholds must satisfy 0 <= medium <= high <= urgent <= 100")
	}
	if cfg.Reminder.Interval <= 0 {
		return errors.New("reminder.interval must be positive")
	}
	if cfg.Reminder.Cooldown <= 0 {
		return errors.New("reminder.cooldown must be positive")
	}
	if cfg.Reminder.SendTimeout <= 0 {
		return errors.New("reminder.send_timeout must be positive")
	}
	if cfg.Reminder.MaxConcurrent < 1 {
		return errors.New("reminder.max_concurrent must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
