// Package config loads binary configuration from the environment and an
// optional .env file.
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go-simpler.org/env"
)

// Refresh modes
const (
	RefreshBackend = "backend"
	RefreshOAuth2  = "oauth2"
)

type Config struct {
	Environment string `env:"NDR_ENVIRONMENT" default:"development"`

	APIBaseURL string `env:"NDR_API_URL"`
	APIKey     string `env:"NDR_API_KEY"`
	AuthScheme string `env:"NDR_AUTH_SCHEME"`

	SessionFile string `env:"NDR_SESSION_FILE"`

	// RefreshMode picks the token refresher: the API's own refresh
	// endpoint or a direct refresh token grant against the OIDC provider
	RefreshMode      string `env:"NDR_REFRESH_MODE" default:"backend"`
	OIDCTokenURL     string `env:"NDR_OIDC_TOKEN_URL"`
	OIDCClientID     string `env:"NDR_OIDC_CLIENT_ID"`
	OIDCClientSecret string `env:"NDR_OIDC_CLIENT_SECRET"`
	AccessToken      string `env:"NDR_ACCESS_TOKEN"`
	RefreshToken     string `env:"NDR_REFRESH_TOKEN"`

	Timeout   time.Duration `env:"NDR_TIMEOUT" default:"30s"`
	RetryMax  int           `env:"NDR_RETRY_MAX" default:"0"`
	RetryWait time.Duration `env:"NDR_RETRY_WAIT" default:"1s"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"console"`

	SentryDSN   string `env:"SENTRY_DSN"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Load reads files (default ".env", ignored when missing) into the
// environment and then decodes the environment into a Config.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, errors.Wrap(err, "failed to load .env file")
		}
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment variables")
	}

	if cfg.SessionFile == "" {
		cfg.SessionFile = DefaultSessionFile()
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultSessionFile is ~/.ndr/session.json, or a relative path when the
// home directory is unknown
func DefaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ndr", "session.json")
	}
	return filepath.Join(home, ".ndr", "session.json")
}

func validate(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return errors.New("NDR_API_URL is required")
	}
	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("NDR_API_URL must be an absolute URL, got %q", cfg.APIBaseURL)
	}

	switch cfg.RefreshMode {
	case RefreshBackend:
	case RefreshOAuth2:
		required := map[string]string{
			"NDR_OIDC_TOKEN_URL": cfg.OIDCTokenURL,
			"NDR_OIDC_CLIENT_ID": cfg.OIDCClientID,
		}
		for name, value := range required {
			if value == "" {
				return errors.Errorf("%s is required when NDR_REFRESH_MODE is oauth2", name)
			}
		}
	default:
		return errors.Errorf("NDR_REFRESH_MODE must be %q or %q, got %q", RefreshBackend, RefreshOAuth2, cfg.RefreshMode)
	}

	if cfg.Timeout <= 0 {
		return errors.New("NDR_TIMEOUT must be positive")
	}
	if cfg.RetryMax < 0 {
		return errors.New("NDR_RETRY_MAX must not be negative")
	}

	return nil
}
