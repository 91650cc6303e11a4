// Package session persists the logged-in user between eventbook runs.
//
// The store is written by the login and signup flows and read once by each
// view at initialization.
package session

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Shivanand-hulikatti/eventbook/internal/model"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNoSession means nothing usable is stored.
	ErrNoSession = errors.New("no session")
	// ErrMalformed means the stored record is not valid JSON.
	ErrMalformed = errors.New("malformed session")
	// ErrMissingUserID means the record decoded but carries no user id.
	ErrMissingUserID = errors.New("session has no user id")
)

// Record is the persisted session.
type Record struct {
	Token string             `json:"token,omitempty"`
	User  *model.SessionUser `json:"user"`
}

// FileStore keeps the session record in a single JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) read() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, ErrNoSession
		}
		return Record{}, errors.Wrap(err, "read session")
	}

	data = bytes.TrimSpace(data)
	// The browser client used to persist the literal string "undefined".
	if len(data) == 0 || string(data) == "undefined" || string(data) == "null" {
		return Record{}, ErrNoSession
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, errors.Mark(errors.Wrap(err, "decode session"), ErrMalformed)
	}
	return rec, nil
}

// Load returns the stored user.
func (s *FileStore) Load() (model.SessionUser, error) {
	rec, err := s.read()
	if err != nil {
		return model.SessionUser{}, err
	}
	if rec.User == nil {
		return model.SessionUser{}, ErrNoSession
	}
	if rec.User.UserID == 0 {
		return model.SessionUser{}, ErrMissingUserID
	}
	return *rec.User, nil
}

// Token returns the stored bearer token, or "" when there is none.
func (s *FileStore) Token() string {
	rec, err := s.read()
	if err != nil {
		return ""
	}
	return rec.Token
}

// Save replaces the stored record. The file is written via a temp file and
// rename with 0600 permissions.
func (s *FileStore) Save(rec Record) error {
	if rec.User == nil {
		return errors.New("session user is nil")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create session dir")
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session")
	}

	tmp, err := os.CreateTemp(dir, ".eventbook-session-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp session")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write session")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync session")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close session")
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return errors.Wrap(err, "chmod session")
	}
	return errors.Wrap(os.Rename(tmpName, s.path), "rename session")
}

// Clear removes the stored record. Clearing an empty store is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "remove session")
	}
	return nil
}
