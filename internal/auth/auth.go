package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NHSDigital/national-document-repository-go/internal/types"
	"github.com/pkg/errors"
)

const (
	tokenRequestEndpoint = "/Auth/TokenRequest"
	refreshEndpoint      = "/Auth/RefreshToken"
)

// RefreshError is returned when the refresh endpoint rejects a token
type RefreshError struct {
	StatusCode int
	Revoked    bool
	Err        error
}

func (e *RefreshError) Error() string {
	if e.Revoked {
		return fmt.Sprintf("refresh token rejected: %v", e.Err)
	}
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Service talks to the repository's auth endpoints. Its requests bypass
// the authenticated client, so they are never refreshed or retried.
type Service struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	logger     types.Logger
}

// NewService creates a new auth service
func NewService(baseURL string, httpClient *http.Client, headers map[string]string, logger types.Logger) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: types.DefaultTimeout}
	}

	h := map[string]string{
		"Accept":     "application/json",
		"User-Agent": types.UserAgent,
	}
	for k, v := range headers {
		h[k] = v
	}

	return &Service{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		headers:    h,
		logger:     logger,
	}
}

// Login exchanges the CIS2 authorisation code and state for credentials
func (s *Service) Login(ctx context.Context, code, state string) (*types.Credentials, error) {
	if code == "" || state == "" {
		return nil, errors.New("code and state are required")
	}

	if s.logger != nil {
		s.logger.Debug("Token request")
	}

	resp, status, err := s.get(ctx, tokenRequestEndpoint, url.Values{
		"code":  []string{code},
		"state": []string{state},
	})
	if err != nil {
		return nil, errors.Wrap(err, "token request failed")
	}

	if status != http.StatusOK {
		return nil, &types.Error{
			Kind:       types.KindHTTP,
			Code:       "LOGIN_FAILED",
			Message:    fmt.Sprintf("login failed with status %d", status),
			StatusCode: status,
			Err:        types.ErrUnauthorized,
		}
	}

	if resp.AuthorisationToken == "" {
		return nil, errors.New("no token in login response")
	}

	creds := withClaims(resp.credentials())

	if s.logger != nil {
		s.logger.Info("Login successful", "role", creds.Role, "organisation", creds.AuthorisedOrg)
	}

	return &creds, nil
}

// Refresh exchanges a refresh token for a new access token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*types.RefreshResult, error) {
	if refreshToken == "" {
		return nil, &RefreshError{Revoked: true, Err: errors.New("no refresh token")}
	}

	resp, status, err := s.get(ctx, refreshEndpoint, url.Values{
		"refreshToken": []string{refreshToken},
	})
	if err != nil {
		return nil, &RefreshError{Err: err}
	}

	if status != http.StatusOK {
		revoked := status == http.StatusBadRequest ||
			status == http.StatusUnauthorized ||
			status == http.StatusForbidden
		return nil, &RefreshError{
			StatusCode: status,
			Revoked:    revoked,
			Err:        fmt.Errorf("refresh failed with status %d", status),
		}
	}

	creds := withClaims(resp.credentials())

	if s.logger != nil {
		s.logger.Debug("Token refreshed", "expires_at", creds.ExpiresAt)
	}

	return &types.RefreshResult{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt,
	}, nil
}

// get performs a GET against an auth endpoint and decodes a token response.
// The decoded response is nil for non-200 statuses.
func (s *Service) get(ctx context.Context, endpoint string, query url.Values) (*tokenResponse, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to create request")
	}

	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "failed to read response")
	}

	if s.logger != nil {
		s.logger.Debug("Auth response", "endpoint", endpoint, "status", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "failed to parse response")
	}

	return &tr, resp.StatusCode, nil
}

// tokenResponse is the body returned by the token endpoints
type tokenResponse struct {
	AuthorisationToken string               `json:"authorisation_token"`
	RefreshToken       string               `json:"refresh_token"`
	Role               string               `json:"role"`
	Organisations      []types.Organisation `json:"organisations"`
	ExpiresIn          int                  `json:"expires_in"`
}

func (r *tokenResponse) credentials() types.Credentials {
	creds := types.Credentials{
		AccessToken:   r.AuthorisationToken,
		RefreshToken:  r.RefreshToken,
		Role:          r.Role,
		Organisations: r.Organisations,
	}
	if r.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return creds
}
