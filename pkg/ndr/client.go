package ndr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/NHSDigital/national-document-repository-go/internal/auth"
	"github.com/NHSDigital/national-document-repository-go/internal/session"
	"github.com/NHSDigital/national-document-repository-go/internal/transport"
	internalTypes "github.com/NHSDigital/national-document-repository-go/internal/types"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = internalTypes.UserAgent

	// maxRefreshRetries bounds how often one request is reissued after a refresh
	maxRefreshRetries = 1
)

// Request describes one API call
type Request = internalTypes.Request

// Response is a fully read API response
type Response = internalTypes.Response

// RefreshResult is what a TokenRefresher yields
type RefreshResult = internalTypes.RefreshResult

// RetryConfig configures transport-level retries for connection errors,
// 429 and 5xx. It never applies to 403.
type RetryConfig = internalTypes.RetryConfig

// Hooks provides lifecycle hooks for requests
type Hooks = internalTypes.Hooks

// Logger interface for logging
type Logger = internalTypes.Logger

// Client is the repository API client
type Client struct {
	// Service interfaces
	Auth         AuthService
	Patients     PatientService
	Documents    DocumentService
	LloydGeorge  LloydGeorgeService
	FeatureFlags FeatureFlagService

	// Internal fields
	baseURL     string
	httpClient  *http.Client
	transport   Transport
	session     SessionAccessor
	refresher   TokenRefresher
	authService *auth.Service
	sessionFile *session.FileStore
	options     *ClientOptions
}

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL is the API base URL; required
	BaseURL string

	// Headers are sent with every request, over the built-in defaults
	Headers map[string]string

	// AuthScheme prefixes the access token in the Authorization header.
	// Empty sends the bare token, which is what the repository API expects.
	AuthScheme string

	// Session gives the client read/write access to the credentials; required.
	// NewSessionStore provides an in-memory accessor.
	Session SessionAccessor

	// Refresher obtains new access tokens after a 403.
	// Defaults to the API's own refresh endpoint.
	Refresher TokenRefresher

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// SessionFile path for session persistence
	SessionFile string

	// Logger for debug logging
	Logger Logger

	// RetryConfig enables transport-level retries
	RetryConfig *RetryConfig

	// Hooks for observability
	Hooks *Hooks

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// Transport performs one HTTP exchange
type Transport interface {
	Do(ctx context.Context, req *Request, token, correlationID string) (*Response, error)
}

// TokenRefresher exchanges a refresh token for a new access token.
// A result with an empty AccessToken counts as a failed refresh.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
}

// RefresherFunc adapts a function to TokenRefresher
type RefresherFunc func(ctx context.Context, refreshToken string) (*RefreshResult, error)

// Refresh calls f
func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	return f(ctx, refreshToken)
}

// NewClient creates a new repository API client
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil || opts.BaseURL == "" {
		return nil, errors.Wrap(ErrInvalidConfig, "base URL is required")
	}
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "base URL %q: %v", opts.BaseURL, err)
	}
	if opts.Session == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "session accessor is required")
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}
		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}
		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}
		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}

		if err := sentry.Init(sentryOpts); err != nil {
			// Log error but don't fail client creation
			if opts.Logger != nil {
				opts.Logger.Error("Failed to initialize Sentry", "error", err)
			}
		}
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}

	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	trans := transport.NewHTTPTransport(&transport.Options{
		BaseURL:     opts.BaseURL,
		HTTPClient:  opts.HTTPClient,
		Headers:     opts.Headers,
		AuthScheme:  opts.AuthScheme,
		RetryConfig: opts.RetryConfig,
		Logger:      opts.Logger,
		Hooks:       opts.Hooks,
	})

	authService := auth.NewService(opts.BaseURL, opts.HTTPClient, opts.Headers, opts.Logger)

	c := &Client{
		baseURL:     opts.BaseURL,
		httpClient:  opts.HTTPClient,
		transport:   trans,
		session:     opts.Session,
		refresher:   opts.Refresher,
		authService: authService,
		options:     opts,
	}
	if c.refresher == nil {
		c.refresher = authService
	}

	c.initServices()

	if opts.SessionFile != "" {
		c.sessionFile = session.NewFileStore(opts.SessionFile, nil, opts.Logger)
		if err := c.loadSession(); err != nil && opts.Logger != nil {
			opts.Logger.Warn("Failed to load session", "path", c.sessionFile.Path(), "error", err)
		}
	}

	return c, nil
}

// initServices initializes all service implementations
func (c *Client) initServices() {
	c.Auth = &authServiceImpl{client: c}
	c.Patients = &patientService{client: c}
	c.Documents = &documentService{client: c}
	c.LloydGeorge = &lloydGeorgeService{client: c}
	c.FeatureFlags = &featureFlagService{client: c}
}

// Session returns the current session
func (c *Client) Session() Session {
	return c.session.Session()
}

// attempt is one try at a request. Values are never modified; a retry is
// a new attempt derived from the previous one.
type attempt struct {
	req           *Request
	n             int
	token         string
	correlationID string
}

func (a attempt) retry(token string) attempt {
	return attempt{
		req:           a.req,
		n:             a.n + 1,
		token:         token,
		correlationID: a.correlationID,
	}
}

// Send performs req. A 403 triggers one token refresh and one reissue of
// the same request; every other failure is returned as is.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.Path == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "request path is required")
	}

	start := time.Now()
	resp, err := c.send(ctx, attempt{req: req, correlationID: uuid.NewString()})
	if err != nil && reportable(err) {
		c.captureError(ctx, req, err, time.Since(start))
	}
	return resp, err
}

// reportable reports whether a failed Send goes to Sentry. Only transport
// failures, 5xx and a 403 that survived the refresh are captured.
func reportable(err error) bool {
	if errors.Is(err, ErrTransport) || errors.Is(err, ErrAuthExpired) {
		return true
	}
	return StatusCode(err) >= http.StatusInternalServerError
}

func (c *Client) send(ctx context.Context, a attempt) (*Response, error) {
	token := a.token
	if token == "" {
		if creds := c.session.Session().Auth; creds != nil {
			token = creds.AccessToken
		}
	}

	resp, err := c.transport.Do(ctx, a.req, token, a.correlationID)
	if err == nil {
		resp.Attempts = a.n + 1
		return resp, nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		apiErr.Response.Attempts = a.n + 1
	}

	if !errors.Is(err, ErrAuthExpired) || a.n >= maxRefreshRetries {
		return nil, err
	}

	newToken, ok := c.refreshSession(ctx)
	if !ok {
		return nil, err
	}

	return c.send(ctx, a.retry(newToken))
}

// refreshSession refreshes the access token and installs a new session.
// Concurrent callers are not deduplicated; each 403 refreshes on its own.
func (c *Client) refreshSession(ctx context.Context) (string, bool) {
	current := c.session.Session()
	if current.Auth == nil || current.Auth.RefreshToken == "" {
		c.refreshFailed(ctx, errors.Wrap(ErrRefreshFailed, "no refresh token in session"))
		return "", false
	}

	result, err := c.refresher.Refresh(ctx, current.Auth.RefreshToken)
	if err == nil && (result == nil || result.AccessToken == "") {
		err = errors.Wrap(ErrRefreshFailed, "refresh returned no access token")
	}
	if err != nil {
		c.refreshFailed(ctx, err)
		return "", false
	}

	next := Session{
		Auth:       refreshedCredentials(current.Auth, result),
		IsLoggedIn: true,
	}
	c.session.SetSession(next)

	if c.options.Logger != nil {
		c.options.Logger.Debug("Access token refreshed")
	}
	if c.options.Hooks != nil && c.options.Hooks.OnRefresh != nil {
		c.options.Hooks.OnRefresh(ctx, nil)
	}

	c.saveSession(next)

	return next.Auth.AccessToken, true
}

func (c *Client) refreshFailed(ctx context.Context, cause error) {
	err := &Error{
		Kind:    KindRefreshFailed,
		Code:    "REFRESH_FAILED",
		Message: fmt.Sprintf("token refresh failed: %v", cause),
		Err:     cause,
	}

	if c.options.Logger != nil {
		c.options.Logger.Warn("Token refresh failed", "error", cause)
	}
	if c.options.Hooks != nil && c.options.Hooks.OnRefresh != nil {
		c.options.Hooks.OnRefresh(ctx, err)
	}
}

// captureError reports a failed request to Sentry
func (c *Client) captureError(ctx context.Context, req *Request, err error, duration time.Duration) {
	capture := func(hub *sentry.Hub) {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("http.path", req.Path)
			scope.SetTag("http.method", methodOf(req))
			scope.SetContext("request", map[string]interface{}{
				"status":   StatusCode(err),
				"duration": duration.String(),
			})
			hub.CaptureException(err)
		})
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		capture(hub)
		return
	}
	capture(sentry.CurrentHub())
}

// getJSON performs a GET and decodes the body into result
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, result)
}

// doJSON sends body as JSON and decodes the response into result
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	req := &Request{
		Method: method,
		Path:   path,
		Query:  query,
	}

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
		req.Body = data
	}

	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}

	if result != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return errors.Wrap(err, "failed to unmarshal result")
		}
	}

	return nil
}

// loadSession installs the session saved in the session file
func (c *Client) loadSession() error {
	saved, err := c.sessionFile.Load()
	if err != nil {
		return err
	}
	c.session.SetSession(saved)
	return nil
}

// saveSession writes s to the session file if one is configured
func (c *Client) saveSession(s Session) {
	if c.sessionFile == nil {
		return
	}
	if err := c.sessionFile.Save(s); err != nil && c.options.Logger != nil {
		c.options.Logger.Warn("Failed to save session", "path", c.sessionFile.Path(), "error", err)
	}
}

// Close flushes any pending Sentry events and performs cleanup
func (c *Client) Close() {
	// Flush Sentry events with a 2 second timeout
	sentry.Flush(2 * time.Second)
}

func methodOf(req *Request) string {
	if req.Method == "" {
		return http.MethodGet
	}
	return req.Method
}
