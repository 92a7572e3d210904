package ndr

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	forbidden := &Error{Kind: KindAuthExpired, Code: "AUTH_EXPIRED", StatusCode: http.StatusForbidden}
	transport := &Error{Kind: KindTransport, Code: "TRANSPORT_ERROR", Err: context.DeadlineExceeded}
	refresh := &Error{Kind: KindRefreshFailed, Code: "REFRESH_FAILED"}
	notFound := &Error{Kind: KindHTTP, Code: "NOT_FOUND", StatusCode: http.StatusNotFound, Err: ErrNotFound}

	assert.ErrorIs(t, forbidden, ErrAuthExpired)
	assert.NotErrorIs(t, forbidden, ErrUnauthorized)
	assert.ErrorIs(t, transport, ErrTransport)
	assert.ErrorIs(t, transport, context.DeadlineExceeded)
	assert.ErrorIs(t, refresh, ErrRefreshFailed)
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.ErrorIs(t, notFound, NewError("NOT_FOUND", "other"))

	// Through wrapping
	wrapped := errors.Wrap(forbidden, "failed to search patient")
	assert.ErrorIs(t, wrapped, ErrAuthExpired)
	assert.Equal(t, http.StatusForbidden, StatusCode(wrapped))
}

func TestError_Message(t *testing.T) {
	transport := &Error{Kind: KindTransport, Message: "GET /SearchPatient failed", Err: context.Canceled}
	assert.Equal(t, "GET /SearchPatient failed: context canceled", transport.Error())

	httpErr := &Error{Kind: KindHTTP, Message: "not found: 404", Err: ErrNotFound}
	assert.Equal(t, "not found: 404", httpErr.Error())

	bare := &Error{Code: "SOMETHING"}
	assert.Equal(t, "error: SOMETHING", bare.Error())
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(&Error{Kind: KindAuthExpired}))
	assert.True(t, IsAuthError(errors.Wrap(ErrUnauthorized, "login")))
	assert.True(t, IsAuthError(ErrNotLoggedIn))
	assert.False(t, IsAuthError(ErrNotFound))
	assert.False(t, IsAuthError(nil))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", ErrRateLimited, true},
		{"server error", &Error{Kind: KindHTTP, StatusCode: 502, Err: ErrServerError}, true},
		{"transport", &Error{Kind: KindTransport}, true},
		{"status only", &Error{Kind: KindHTTP, StatusCode: 503}, true},
		{"forbidden", &Error{Kind: KindAuthExpired, StatusCode: 403}, false},
		{"bad request", &Error{Kind: KindHTTP, StatusCode: 400, Err: ErrBadRequest}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, 0, StatusCode(errors.New("boom")))
	assert.Equal(t, 404, StatusCode(errors.Wrap(&Error{StatusCode: 404}, "ctx")))
}
