package ndr

import (
	"errors"

	internalTypes "github.com/NHSDigital/national-document-repository-go/internal/types"
)

var (
	// ErrTransport is matched by errors for requests that never got a response
	ErrTransport = internalTypes.ErrTransport

	// ErrAuthExpired is matched by 403 responses
	ErrAuthExpired = internalTypes.ErrAuthExpired

	// ErrRefreshFailed is returned when a refresh yields no access token
	ErrRefreshFailed = internalTypes.ErrRefreshFailed

	// ErrUnauthorized is matched by 401 responses
	ErrUnauthorized = internalTypes.ErrUnauthorized

	// ErrBadRequest is matched by 400 responses
	ErrBadRequest = internalTypes.ErrBadRequest

	// ErrRateLimited is returned when rate limited
	ErrRateLimited = internalTypes.ErrRateLimited

	// ErrTimeout is returned on timeout
	ErrTimeout = internalTypes.ErrTimeout

	// ErrNotFound is returned when resource not found
	ErrNotFound = internalTypes.ErrNotFound

	// ErrServerError is returned for server errors
	ErrServerError = internalTypes.ErrServerError

	// ErrInvalidConfig is returned by NewClient for unusable options
	ErrInvalidConfig = errors.New("invalid client configuration")

	// ErrInvalidRequest is returned for invalid requests
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidNHSNumber is returned when an NHS number fails validation
	ErrInvalidNHSNumber = errors.New("invalid NHS number")

	// ErrNotLoggedIn is returned when an operation needs a session
	ErrNotLoggedIn = errors.New("not logged in")
)

// Error represents an API error
type Error = internalTypes.Error

// ErrorKind classifies an *Error
type ErrorKind = internalTypes.Kind

const (
	KindTransport     = internalTypes.KindTransport
	KindAuthExpired   = internalTypes.KindAuthExpired
	KindRefreshFailed = internalTypes.KindRefreshFailed
	KindHTTP          = internalTypes.KindHTTP
)

// CodeRequestBuild is the Code of a transport error raised before the
// request was sent
const CodeRequestBuild = internalTypes.CodeRequestBuild

// NewError creates a new API error
func NewError(code, message string) *Error {
	return &Error{
		Kind:    KindHTTP,
		Code:    code,
		Message: message,
	}
}

// IsAuthError checks if error is authentication related
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthExpired) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrRefreshFailed) ||
		errors.Is(err, ErrNotLoggedIn)
}

// IsRetryable checks if error is retryable
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServerError) ||
		errors.Is(err, ErrTransport) {
		return true
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429
	}

	return false
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
