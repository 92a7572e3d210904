package types

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Credentials is the credential bundle issued by the auth endpoints.
// Values are replaced wholesale, never patched.
type Credentials struct {
	AccessToken   string         `json:"accessToken"`
	RefreshToken  string         `json:"refreshToken"`
	Role          string         `json:"role,omitempty"`
	Organisations []Organisation `json:"organisations,omitempty"`
	AuthorisedOrg string         `json:"authorisedOrg,omitempty"`
	ExpiresAt     time.Time      `json:"expiresAt,omitempty"`
}

// Organisation is a care setting the user may act for
type Organisation struct {
	ODSCode string `json:"odsCode"`
	Name    string `json:"orgName"`
	Role    string `json:"role,omitempty"`
}

// Session represents the browser-side auth state
type Session struct {
	Auth       *Credentials `json:"auth"`
	IsLoggedIn bool         `json:"isLoggedIn"`
}

// Request describes one outbound API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a fully read API response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Attempts is the number of exchanges it took to produce this response
	Attempts int
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RetryConfig configures transport-level retry behavior
type RetryConfig struct {
	MaxRetries int           `json:"maxRetries"`
	RetryWait  time.Duration `json:"retryWait"`
	MaxWait    time.Duration `json:"maxWait"`
}

// Hooks provides lifecycle hooks for requests
type Hooks struct {
	OnRequest  func(ctx context.Context, req *http.Request)
	OnResponse func(ctx context.Context, resp *http.Response, duration time.Duration)

	// OnError follows OnRequest for a failed exchange. It also fires alone,
	// with Code CodeRequestBuild, when the request could not be built.
	OnError func(ctx context.Context, err error)

	// OnRefresh is called after every refresh attempt; err is nil on success
	OnRefresh func(ctx context.Context, err error)
}

// RefreshResult is what a token refresh yields. An empty AccessToken means
// the refresh failed.
type RefreshResult struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}
