package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NHSDigital/national-document-repository-go/internal/types"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

const (
	authHeaderKey = "Authorization"
	contentType   = "application/json"
)

// HTTPTransport performs single REST exchanges against the repository API
type HTTPTransport struct {
	baseURL     string
	authScheme  string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	headers     map[string]string
	logger      types.Logger
	hooks       *types.Hooks
}

// Options for the HTTP transport
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string

	// AuthScheme prefixes the token in the Authorization header ("Bearer").
	// Empty sends the bare token.
	AuthScheme string

	RetryConfig *types.RetryConfig
	Logger      types.Logger
	Hooks       *types.Hooks
}

// NewHTTPTransport creates a new HTTP transport
func NewHTTPTransport(opts *Options) *HTTPTransport {
	if opts == nil {
		opts = &Options{}
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	// Create retry client if configured
	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait
		// Hand back the last response instead of a "giving up" error so
		// callers still see the real status code.
		retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

		if opts.Logger != nil {
			retryClient.Logger = &retryLogger{logger: opts.Logger}
		} else {
			retryClient.Logger = nil
		}
	}

	headers := map[string]string{
		"Accept":       contentType,
		"Content-Type": contentType,
		"User-Agent":   types.UserAgent,
	}

	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &HTTPTransport{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		authScheme:  opts.AuthScheme,
		httpClient:  opts.HTTPClient,
		retryClient: retryClient,
		headers:     headers,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
}

// Do performs one exchange. A non-2xx status is returned as a *types.Error
// carrying the read response; a failed exchange as a KindTransport error.
func (t *HTTPTransport) Do(ctx context.Context, req *types.Request, token, correlationID string) (*types.Response, error) {
	httpReq, err := t.newRequest(ctx, req, token, correlationID)
	if err != nil {
		tErr := &types.Error{
			Kind:      types.KindTransport,
			Code:      types.CodeRequestBuild,
			Message:   fmt.Sprintf("cannot build request for %s", req.Path),
			RequestID: correlationID,
			Err:       err,
		}
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, tErr)
		}
		return nil, tErr
	}

	if t.hooks != nil && t.hooks.OnRequest != nil {
		t.hooks.OnRequest(ctx, httpReq)
	}

	if t.logger != nil {
		t.logger.Debug("API request", "method", httpReq.Method, "path", req.Path, "correlation_id", correlationID)
	}

	start := time.Now()
	resp, err := t.doRequest(httpReq)
	duration := time.Since(start)

	if err != nil {
		tErr := &types.Error{
			Kind:      types.KindTransport,
			Code:      "TRANSPORT_ERROR",
			Message:   fmt.Sprintf("%s %s failed", httpReq.Method, req.Path),
			RequestID: correlationID,
			Err:       err,
		}
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, tErr)
		}
		return nil, tErr
	}
	defer resp.Body.Close()

	if t.hooks != nil && t.hooks.OnResponse != nil {
		t.hooks.OnResponse(ctx, resp, duration)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.Error{
			Kind:      types.KindTransport,
			Code:      "TRANSPORT_ERROR",
			Message:   "failed to read response",
			RequestID: correlationID,
			Err:       err,
		}
	}

	if t.logger != nil {
		t.logger.Debug("API response", "status", resp.StatusCode, "duration", duration, "size", len(body))
	}

	out := &types.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := t.handleHTTPError(resp.StatusCode, body)
		apiErr.Response = out
		apiErr.RequestID = correlationID
		return nil, apiErr
	}

	return out, nil
}

// newRequest builds the *http.Request for one attempt. Called once per
// attempt so the body reader is always fresh.
func (t *HTTPTransport) newRequest(ctx context.Context, req *types.Request, token, correlationID string) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	url := t.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if correlationID != "" {
		httpReq.Header.Set(types.CorrelationHeader, correlationID)
	}

	if token != "" {
		httpReq.Header.Set(authHeaderKey, t.authHeaderValue(token))
	}

	return httpReq, nil
}

func (t *HTTPTransport) authHeaderValue(token string) string {
	if t.authScheme == "" {
		return token
	}
	return fmt.Sprintf("%s %s", t.authScheme, token)
}

// doRequest executes the HTTP request with retry if configured
func (t *HTTPTransport) doRequest(req *http.Request) (*http.Response, error) {
	if t.retryClient != nil {
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return t.retryClient.Do(retryReq)
	}
	return t.httpClient.Do(req)
}

// handleHTTPError maps a non-2xx status to an API error
func (t *HTTPTransport) handleHTTPError(statusCode int, body []byte) *types.Error {
	var errResp struct {
		Message       string `json:"message"`
		Error         string `json:"error"`
		Code          string `json:"err_code"`
		InteractionID string `json:"interaction_id"`
	}

	_ = json.Unmarshal(body, &errResp)

	msg := errResp.Message
	if msg == "" {
		msg = errResp.Error
	}

	apiErr := &types.Error{
		Kind:       types.KindHTTP,
		Code:       errResp.Code,
		StatusCode: statusCode,
	}
	if errResp.InteractionID != "" {
		apiErr.Details = map[string]interface{}{"interactionId": errResp.InteractionID}
	}

	switch {
	case statusCode == http.StatusForbidden:
		apiErr.Kind = types.KindAuthExpired
		apiErr.Err = types.ErrAuthExpired
		apiErr.Message = withDetail("forbidden: 403", msg)
		setDefaultCode(apiErr, "AUTH_EXPIRED")
	case statusCode == http.StatusUnauthorized:
		apiErr.Err = types.ErrUnauthorized
		apiErr.Message = withDetail("unauthorized: 401", msg)
		setDefaultCode(apiErr, "UNAUTHORIZED")
	case statusCode == http.StatusNotFound:
		apiErr.Err = types.ErrNotFound
		apiErr.Message = withDetail("not found: 404", msg)
		setDefaultCode(apiErr, "NOT_FOUND")
	case statusCode == http.StatusTooManyRequests:
		apiErr.Err = types.ErrRateLimited
		apiErr.Message = "rate limited: 429"
		setDefaultCode(apiErr, "RATE_LIMITED")
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		apiErr.Err = types.ErrTimeout
		apiErr.Message = fmt.Sprintf("request timeout: %d", statusCode)
		setDefaultCode(apiErr, "TIMEOUT")
	case statusCode == http.StatusBadRequest:
		apiErr.Err = types.ErrBadRequest
		apiErr.Message = withDetail("bad request: 400", msg)
		setDefaultCode(apiErr, "BAD_REQUEST")
	case statusCode >= 500:
		baseMsg := fmt.Sprintf("server error: %d", statusCode)
		if desc := httpStatusDescription(statusCode); desc != "" {
			baseMsg = fmt.Sprintf("server error: %d (%s)", statusCode, desc)
		}
		apiErr.Err = types.ErrServerError
		apiErr.Message = withDetail(baseMsg, msg)
		setDefaultCode(apiErr, "SERVER_ERROR")
	default:
		apiErr.Message = withDetail(fmt.Sprintf("HTTP error: %d", statusCode), msg)
		setDefaultCode(apiErr, "HTTP_ERROR")
	}

	return apiErr
}

func withDetail(base, detail string) string {
	if detail == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, detail)
}

func setDefaultCode(e *types.Error, code string) {
	if e.Code == "" {
		e.Code = code
	}
}

// httpStatusDescription returns a human-readable description for common HTTP status codes.
// API Gateway and CloudFront surface a few of these without a body.
func httpStatusDescription(statusCode int) string {
	descriptions := map[int]string{
		500: "Internal Server Error",
		501: "Not Implemented",
		502: "Bad Gateway",
		503: "Service Unavailable",
		504: "Gateway Timeout",
	}
	return descriptions[statusCode]
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
