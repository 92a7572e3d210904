package types

import (
	"errors"
	"time"
)

const (
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = "ndr-go/1.0.0"

	// CorrelationHeader carries the per-request correlation ID
	CorrelationHeader = "X-Correlation-Id"

	// CodeRequestBuild marks a transport error raised before any exchange
	// started. No OnRequest hook precedes its OnError.
	CodeRequestBuild = "REQUEST_BUILD_ERROR"
)

// Common errors
var (
	// ErrTransport is returned when the request never produced a response
	ErrTransport = errors.New("transport error")

	// ErrAuthExpired is returned on 403 responses
	ErrAuthExpired = errors.New("authorisation expired")

	// ErrRefreshFailed is returned when a token refresh yields no access token
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrUnauthorized is returned on 401 responses
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadRequest is returned on 400 responses
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited is returned when rate limited
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout is returned on timeout
	ErrTimeout = errors.New("request timeout")

	// ErrNotFound is returned when resource not found
	ErrNotFound = errors.New("resource not found")

	// ErrServerError is returned for server errors
	ErrServerError = errors.New("server error")
)
