package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/NHSDigital/national-document-repository-go/internal/types"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

var (
	// ErrNoSession is returned when there is no saved session
	ErrNoSession = errors.New("no saved session")

	// ErrSessionExpired is returned when the saved credentials have expired
	ErrSessionExpired = errors.New("session expired")
)

// FileStore persists a session as JSON on disk
type FileStore struct {
	path   string
	clock  clockwork.Clock
	logger types.Logger
}

// NewFileStore creates a store for path. A nil clock uses the real clock.
func NewFileStore(path string, clock clockwork.Clock, logger types.Logger) *FileStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FileStore{
		path:   path,
		clock:  clock,
		logger: logger,
	}
}

// Path returns the session file path
func (f *FileStore) Path() string {
	return f.path
}

// Save writes session to disk with owner-only permissions
func (f *FileStore) Save(session types.Session) error {
	if session.Auth == nil {
		return errors.New("session has no credentials")
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	// Each save writes its own temp file, then renames it over the session
	// file. Concurrent saves never share a temp file; the last rename wins.
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create session file")
	}
	tmpPath := tmp.Name()

	if err := writeTemp(tmp, data); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to replace session file")
	}

	if f.logger != nil {
		f.logger.Debug("Session saved", "path", f.path)
	}

	return nil
}

func writeTemp(tmp *os.File, data []byte) error {
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to set session file permissions")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write session file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write session file")
	}
	return nil
}

// Load reads the saved session. Expired access tokens are still loaded when
// a refresh token is present, since the client can recover from them.
func (f *FileStore) Load() (types.Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Session{}, ErrNoSession
		}
		return types.Session{}, errors.Wrap(err, "failed to read session file")
	}

	var session types.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return types.Session{}, errors.Wrap(err, "failed to unmarshal session")
	}

	if session.Auth == nil {
		return types.Session{}, ErrNoSession
	}

	expired := !session.Auth.ExpiresAt.IsZero() && f.clock.Now().After(session.Auth.ExpiresAt)
	if expired && session.Auth.RefreshToken == "" {
		return types.Session{}, ErrSessionExpired
	}

	if f.logger != nil {
		f.logger.Debug("Session loaded", "path", f.path, "expired", expired)
	}

	return session, nil
}

// Clear removes the saved session
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove session file")
	}
	return nil
}
