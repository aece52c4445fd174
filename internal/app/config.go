package app

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	BackendURL             string        `envconfig:"BACKEND_URL" default:"http://127.0.0.1:8000"`
	BackendTimeout         time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	BackendBreakerFailures uint32        `envconfig:"BACKEND_BREAKER_FAILURES" default:"5"`
	BackendBreakerCooldown time.Duration `envconfig:"BACKEND_BREAKER_COOLDOWN" default:"30s"`

	PublicURL string `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	SMTPHost string `envconfig:"SMTP_HOST" default:"127.0.0.1"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"no-reply@buensabor.local"`

	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	GotenbergURL   string        `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`
	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"10m"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if _, err := url.ParseRequestURI(cfg.BackendURL); err != nil {
		return nil, errors.New("backend url must be an absolute URL")
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
