package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/fileops/notifyd/internal/notification"
	"github.com/fileops/notifyd/internal/webhook"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.notifyd.
	DataDir string `envconfig:"NOTIFYD_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// TemplatesFile is an optional YAML file of extra notification templates.
	// Defaults to <DataDir>/templates.yaml.
	TemplatesFile string `envconfig:"NOTIFYD_TEMPLATES_FILE"`

	WebhookRequestTimeout   time.Duration `envconfig:"WEBHOOK_REQUEST_TIMEOUT" default:"10s"`
	WebhookFanOutTimeout    time.Duration `envconfig:"WEBHOOK_FANOUT_TIMEOUT" default:"60s"`
	WebhookMaxConcurrency   int           `envconfig:"WEBHOOK_MAX_CONCURRENCY" default:"8"`
	WebhookFailureThreshold int           `envconfig:"WEBHOOK_FAILURE_THRESHOLD" default:"10"`
	WebhookMaxAttempts      int           `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"1"`
	WebhookRetryDelay       time.Duration `envconfig:"WEBHOOK_RETRY_DELAY" default:"500ms"`

	// DeliveryStaleAfter is how long a delivery may stay pending before the
	// monitor reports it.
	DeliveryStaleAfter time.Duration `envconfig:"DELIVERY_STALE_AFTER" default:"5m"`

	// OTLPEndpoint enables trace export over OTLP/gRPC when set.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// SMTP configures the email channel. Email is disabled without SMTP_HOST.
	SMTP notification.SMTPConfig `envconfig:"SMTP"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.notifyd if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".notifyd")
	}
	if c.TemplatesFile == "" {
		c.TemplatesFile = filepath.Join(c.DataDir, "templates.yaml")
	}
	if c.WebhookMaxConcurrency < 1 {
		return nil, fmt.Errorf("WEBHOOK_MAX_CONCURRENCY must be at least 1, got %d", c.WebhookMaxConcurrency)
	}
	if c.WebhookMaxAttempts < 1 {
		return nil, fmt.Errorf("WEBHOOK_MAX_ATTEMPTS must be at least 1, got %d", c.WebhookMaxAttempts)
	}

	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Webhook returns the dispatcher settings.
func (c *AppConfig) Webhook() webhook.Config {
	return webhook.Config{
		RequestTimeout:   c.WebhookRequestTimeout,
		FanOutTimeout:    c.WebhookFanOutTimeout,
		MaxConcurrency:   c.WebhookMaxConcurrency,
		FailureThreshold: c.WebhookFailureThreshold,
		MaxAttempts:      c.WebhookMaxAttempts,
		RetryDelay:       c.WebhookRetryDelay,
	}
}

// LogDir returns the path to the log directory (~/.notifyd/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBFile returns the path to the SQLite database.
func (c *AppConfig) DBFile() string {
	return filepath.Join(c.DataDir, "notifyd.db")
}
