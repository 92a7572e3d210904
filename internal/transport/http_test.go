package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NHSDigital/national-document-repository-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHTTPError_ServerError_IncludesResponseBody(t *testing.T) {
	transport := &HTTPTransport{}

	tests := []struct {
		name          string
		statusCode    int
		responseBody  []byte
		expectedInMsg string
		expectedCode  string
	}{
		{
			name:          "502 Bad Gateway with HTML body",
			statusCode:    502,
			responseBody:  []byte(`<html><body>Bad Gateway</body></html>`),
			expectedInMsg: "502",
			expectedCode:  "SERVER_ERROR",
		},
		{
			name:          "500 with JSON error message",
			statusCode:    500,
			responseBody:  []byte(`{"message": "Failed to query DynamoDB", "err_code": "DT_5001"}`),
			expectedInMsg: "Failed to query DynamoDB",
			expectedCode:  "DT_5001",
		},
		{
			name:          "503 Service Unavailable with empty body",
			statusCode:    503,
			responseBody:  []byte{},
			expectedInMsg: "Service Unavailable",
			expectedCode:  "SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := transport.handleHTTPError(tt.statusCode, tt.responseBody)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedInMsg)
			assert.Equal(t, tt.expectedCode, err.Code)
			assert.True(t, errors.Is(err, types.ErrServerError))
		})
	}
}

func TestHandleHTTPError_Mapping(t *testing.T) {
	transport := &HTTPTransport{}

	tests := []struct {
		statusCode int
		sentinel   error
		kind       types.Kind
	}{
		{http.StatusForbidden, types.ErrAuthExpired, types.KindAuthExpired},
		{http.StatusUnauthorized, types.ErrUnauthorized, types.KindHTTP},
		{http.StatusNotFound, types.ErrNotFound, types.KindHTTP},
		{http.StatusTooManyRequests, types.ErrRateLimited, types.KindHTTP},
		{http.StatusGatewayTimeout, types.ErrTimeout, types.KindHTTP},
		{http.StatusBadRequest, types.ErrBadRequest, types.KindHTTP},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			err := transport.handleHTTPError(tt.statusCode, nil)

			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.statusCode, err.StatusCode)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestDo_SetsHeadersAndReturnsResponse(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(&Options{
		BaseURL: server.URL + "/",
		Headers: map[string]string{"X-Api-Key": "key-1"},
	})

	resp, err := tr.Do(context.Background(), &types.Request{
		Path:  "/SearchPatient",
		Query: url.Values{"patientId": []string{"9000000009"}},
	}, "tok-1", "corr-1")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/SearchPatient", got.URL.Path)
	assert.Equal(t, "9000000009", got.URL.Query().Get("patientId"))
	assert.Equal(t, "tok-1", got.Header.Get("Authorization"))
	assert.Equal(t, "key-1", got.Header.Get("X-Api-Key"))
	assert.Equal(t, "corr-1", got.Header.Get(types.CorrelationHeader))
	assert.Equal(t, types.UserAgent, got.Header.Get("User-Agent"))
}

func TestDo_AuthScheme(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	tr := NewHTTPTransport(&Options{BaseURL: server.URL, AuthScheme: "Bearer"})

	_, err := tr.Do(context.Background(), &types.Request{Path: "FeatureFlags"}, "tok-1", "")

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", auth)
}

func TestDo_NonSuccessCarriesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(&Options{BaseURL: server.URL})

	resp, err := tr.Do(context.Background(), &types.Request{Path: "/SearchPatient"}, "old", "corr-2")

	assert.Nil(t, resp)
	var apiErr *types.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, types.KindAuthExpired, apiErr.Kind)
	assert.Equal(t, "corr-2", apiErr.RequestID)
	require.NotNil(t, apiErr.Response)
	assert.Equal(t, http.StatusForbidden, apiErr.Response.StatusCode)
	assert.Contains(t, string(apiErr.Response.Body), "token expired")
}

func TestDo_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	var hookErr error
	tr := NewHTTPTransport(&Options{
		BaseURL: server.URL,
		Hooks: &types.Hooks{
			OnError: func(ctx context.Context, err error) { hookErr = err },
		},
	})

	_, err := tr.Do(context.Background(), &types.Request{Path: "/SearchPatient"}, "", "")

	assert.ErrorIs(t, err, types.ErrTransport)
	assert.Equal(t, err, hookErr)
}

func TestDo_RequestBuildError(t *testing.T) {
	var requested bool
	var hookErr error
	tr := NewHTTPTransport(&Options{
		BaseURL: "https://api.test.com",
		Hooks: &types.Hooks{
			OnRequest: func(ctx context.Context, req *http.Request) { requested = true },
			OnError:   func(ctx context.Context, err error) { hookErr = err },
		},
	})

	_, err := tr.Do(context.Background(), &types.Request{Method: "BAD METHOD", Path: "/SearchPatient"}, "", "corr-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTransport)

	var apiErr *types.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, types.KindTransport, apiErr.Kind)
	assert.Equal(t, types.CodeRequestBuild, apiErr.Code)
	assert.Equal(t, "corr-1", apiErr.RequestID)
	assert.Equal(t, err, hookErr)
	assert.False(t, requested)
}

func TestDo_RetryConfigRetriesServerErrorsOnly(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr := NewHTTPTransport(&Options{
		BaseURL: server.URL,
		RetryConfig: &types.RetryConfig{
			MaxRetries: 2,
			RetryWait:  time.Millisecond,
			MaxWait:    5 * time.Millisecond,
		},
	})

	resp, err := tr.Do(context.Background(), &types.Request{Path: "/FeatureFlags"}, "", "")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_RetryConfigNeverRetriesForbidden(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	tr := NewHTTPTransport(&Options{
		BaseURL:     server.URL,
		RetryConfig: &types.RetryConfig{MaxRetries: 3, RetryWait: time.Millisecond, MaxWait: time.Millisecond},
	})

	_, err := tr.Do(context.Background(), &types.Request{Path: "/FeatureFlags"}, "", "")

	assert.ErrorIs(t, err, types.ErrAuthExpired)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
