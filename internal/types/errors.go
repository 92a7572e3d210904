package types

import (
	"errors"
	"fmt"
)

// Kind classifies a failed request
type Kind string

const (
	KindTransport     Kind = "transport"
	KindAuthExpired   Kind = "auth_expired"
	KindRefreshFailed Kind = "refresh_failed"
	KindHTTP          Kind = "http"
)

var kindErrors = map[Kind]error{
	KindTransport:     ErrTransport,
	KindAuthExpired:   ErrAuthExpired,
	KindRefreshFailed: ErrRefreshFailed,
}

// Error represents an API error
type Error struct {
	Kind       Kind                   `json:"kind"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"statusCode"`
	Details    map[string]interface{} `json:"details,omitempty"`
	RequestID  string                 `json:"requestId,omitempty"`

	// Response is the failed response, nil for transport errors
	Response *Response `json:"-"`
	Err      error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		if e.Err != nil && e.Kind == KindTransport {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("error: %s", e.Code)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's Kind, sentinels reachable
// through Err, or another *Error with the same Code
func (e *Error) Is(target error) bool {
	if sentinel, ok := kindErrors[e.Kind]; ok && sentinel == target {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}

	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
