package ndr

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

const logoutEndpoint = "/Auth/Logout"

// authServiceImpl implements the AuthService interface
type authServiceImpl struct {
	client *Client
}

// Login exchanges a CIS2 authorisation code and state for a session
func (a *authServiceImpl) Login(ctx context.Context, code, state string) error {
	creds, err := a.client.authService.Login(ctx, code, state)
	if err != nil {
		return err
	}

	next := Session{Auth: creds, IsLoggedIn: true}
	a.client.session.SetSession(next)
	a.client.saveSession(next)

	return nil
}

// Logout ends the session on the server and clears it locally. The local
// session is cleared even when the server call fails.
func (a *authServiceImpl) Logout(ctx context.Context) error {
	if !a.client.session.Session().IsLoggedIn {
		return ErrNotLoggedIn
	}

	_, err := a.client.Send(ctx, &Request{Method: http.MethodGet, Path: logoutEndpoint})

	a.client.session.SetSession(Session{})
	if a.client.sessionFile != nil {
		if clearErr := a.client.sessionFile.Clear(); clearErr != nil && a.client.options.Logger != nil {
			a.client.options.Logger.Warn("Failed to clear session file", "error", clearErr)
		}
	}

	if err != nil {
		return errors.Wrap(err, "logout failed")
	}
	return nil
}

// Session returns the current session
func (a *authServiceImpl) Session() Session {
	return a.client.session.Session()
}
