package auth

import (
	"context"

	"github.com/NHSDigital/national-document-repository-go/internal/types"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// OAuth2Refresher refreshes access tokens with the refresh_token grant
// against an OAuth2/OIDC token endpoint.
type OAuth2Refresher struct {
	config *oauth2.Config
}

// NewOAuth2Refresher creates a refresher for the given client config
func NewOAuth2Refresher(config *oauth2.Config) *OAuth2Refresher {
	return &OAuth2Refresher{config: config}
}

// Refresh exchanges refreshToken at the configured token endpoint
func (r *OAuth2Refresher) Refresh(ctx context.Context, refreshToken string) (*types.RefreshResult, error) {
	if refreshToken == "" {
		return nil, &RefreshError{Revoked: true, Err: errors.New("no refresh token")}
	}

	// An empty access token is never valid, so Token always hits the endpoint.
	tok, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &RefreshError{
				StatusCode: retrieveErr.Response.StatusCode,
				Revoked:    retrieveErr.ErrorCode == "invalid_grant",
				Err:        err,
			}
		}
		return nil, &RefreshError{Err: err}
	}

	creds := withClaims(types.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	})

	return &types.RefreshResult{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt,
	}, nil
}
