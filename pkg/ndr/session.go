package ndr

import (
	"sync/atomic"

	internalTypes "github.com/NHSDigital/national-document-repository-go/internal/types"
)

// Session is the caller-owned auth state the client reads and replaces
type Session = internalTypes.Session

// Credentials is the credential bundle held by a Session. Treat values as
// immutable: build a new one instead of editing fields.
type Credentials = internalTypes.Credentials

// Organisation is a care setting attached to Credentials
type Organisation = internalTypes.Organisation

// SessionAccessor is the read/write capability the client is given over
// the session. SetSession must replace the whole value in one step.
type SessionAccessor interface {
	Session() Session
	SetSession(session Session)
}

// SessionStore is an in-memory SessionAccessor. Readers see either the
// previous or the next session, never a mix.
type SessionStore struct {
	current atomic.Pointer[Session]
}

// NewSessionStore creates a store holding initial
func NewSessionStore(initial Session) *SessionStore {
	s := &SessionStore{}
	s.SetSession(initial)
	return s
}

// Session returns the current session
func (s *SessionStore) Session() Session {
	if p := s.current.Load(); p != nil {
		return *p
	}
	return Session{}
}

// SetSession replaces the current session
func (s *SessionStore) SetSession(session Session) {
	s.current.Store(&session)
}

// refreshedCredentials builds the bundle that replaces old after a refresh
func refreshedCredentials(old *Credentials, result *RefreshResult) *Credentials {
	// The old expiry describes the old access token, so it is not carried.
	next := &Credentials{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
	}
	if old != nil {
		next.RefreshToken = old.RefreshToken
		next.Role = old.Role
		next.AuthorisedOrg = old.AuthorisedOrg
		if len(old.Organisations) > 0 {
			next.Organisations = append([]Organisation(nil), old.Organisations...)
		}
	}

	if result.RefreshToken != "" {
		next.RefreshToken = result.RefreshToken
	}
	return next
}
