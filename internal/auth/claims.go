package auth

import (
	"strings"

	"github.com/NHSDigital/national-document-repository-go/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims are the repository-specific claims carried by an access token
type Claims struct {
	jwt.RegisteredClaims

	RepositoryRole       string             `json:"repository_role"`
	SessionID            string             `json:"ndr_session_id"`
	SelectedOrganisation *OrganisationClaim `json:"selected_organisation,omitempty"`
}

// OrganisationClaim is the organisation the user selected at login
type OrganisationClaim struct {
	Name    string `json:"org_name"`
	ODSCode string `json:"org_ods_code"`
	Role    string `json:"role_code"`
}

// ParseClaims decodes the claims of a JWT access token without verifying
// its signature. The API verifies tokens; the client only reads metadata.
func ParseClaims(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("empty token")
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "failed to parse access token")
	}
	return claims, nil
}

// withClaims returns a copy of creds completed from the access token's
// claims. Opaque tokens leave creds as they are.
func withClaims(creds types.Credentials) types.Credentials {
	claims, err := ParseClaims(creds.AccessToken)
	if err != nil {
		return creds
	}

	if claims.ExpiresAt != nil && creds.ExpiresAt.IsZero() {
		creds.ExpiresAt = claims.ExpiresAt.Time
	}
	if creds.Role == "" {
		creds.Role = claims.RepositoryRole
	}
	if org := claims.SelectedOrganisation; org != nil && creds.AuthorisedOrg == "" {
		creds.AuthorisedOrg = org.ODSCode
	}
	return creds
}
