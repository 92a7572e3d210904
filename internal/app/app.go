// Package app wires configuration into a ready client for the binaries.
package app

import (
	"net/http"
	"time"

	"github.com/NHSDigital/national-document-repository-go/internal/auth"
	"github.com/NHSDigital/national-document-repository-go/internal/config"
	"github.com/NHSDigital/national-document-repository-go/internal/logging"
	"github.com/NHSDigital/national-document-repository-go/pkg/metrics"
	"github.com/NHSDigital/national-document-repository-go/pkg/ndr"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
)

const apiKeyHeader = "x-api-key"

// App is a configured client and its supporting pieces
type App struct {
	Client   *ndr.Client
	Session  *ndr.SessionStore
	Logger   *logging.Logger
	Registry *prometheus.Registry
}

// New builds an App from cfg. Credentials given in the environment take
// precedence over the saved session.
func New(cfg *config.Config) (*App, error) {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	registry := metrics.NewRegistry()
	collector := metrics.NewCollector(registry)

	store := ndr.NewSessionStore(ndr.Session{})

	opts := &ndr.ClientOptions{
		BaseURL:     cfg.APIBaseURL,
		AuthScheme:  cfg.AuthScheme,
		Session:     store,
		Refresher:   refresher(cfg),
		Timeout:     cfg.Timeout,
		SessionFile: cfg.SessionFile,
		Logger:      logger,
		Hooks:       collector.Hooks(nil),
	}
	if cfg.APIKey != "" {
		opts.Headers = map[string]string{apiKeyHeader: cfg.APIKey}
	}
	if cfg.RetryMax > 0 {
		opts.RetryConfig = &ndr.RetryConfig{
			MaxRetries: cfg.RetryMax,
			RetryWait:  cfg.RetryWait,
			MaxWait:    cfg.RetryWait * 10,
		}
	}
	if cfg.SentryDSN != "" {
		opts.SentryDSN = cfg.SentryDSN
		opts.SentryOptions = &sentry.ClientOptions{Environment: cfg.Environment}
	}

	client, err := ndr.NewClient(opts)
	if err != nil {
		return nil, err
	}

	if cfg.AccessToken != "" {
		store.SetSession(ndr.Session{
			Auth: &ndr.Credentials{
				AccessToken:  cfg.AccessToken,
				RefreshToken: cfg.RefreshToken,
			},
			IsLoggedIn: true,
		})
	}

	return &App{
		Client:   client,
		Session:  store,
		Logger:   logger,
		Registry: registry,
	}, nil
}

// refresher returns the configured token refresher, or nil for the
// client's default
func refresher(cfg *config.Config) ndr.TokenRefresher {
	if cfg.RefreshMode != config.RefreshOAuth2 {
		return nil
	}
	return auth.NewOAuth2Refresher(&oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.OIDCTokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	})
}

// MetricsServer returns a server exposing the registry on addr at /metrics
func (a *App) MetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.Registry))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Close flushes pending error reports
func (a *App) Close() {
	a.Client.Close()
}
