package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Shivanand-hulikatti/eventbook/internal/model"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
}

func writeRaw(t *testing.T, s *FileStore, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
	require.NoError(t, os.WriteFile(s.Path(), []byte(body), 0o600))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		body    *string
		wantErr error
		want    model.SessionUser
	}{
		{name: "missing file", body: nil, wantErr: ErrNoSession},
		{name: "empty file", body: ptr("  \n"), wantErr: ErrNoSession},
		{name: "literal undefined", body: ptr("undefined"), wantErr: ErrNoSession},
		{name: "null user", body: ptr(`{"token":"t","user":null}`), wantErr: ErrNoSession},
		{name: "bad json", body: ptr(`{"user":`), wantErr: ErrMalformed},
		{name: "no user id", body: ptr(`{"user":{"username":"jane"}}`), wantErr: ErrMissingUserID},
		{
			name: "valid",
			body: ptr(`{"token":"abc","user":{"userId":7,"username":"jane","role":"User"}}`),
			want: model.SessionUser{UserID: 7, Username: "jane", Role: "User"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			if tc.body != nil {
				writeRaw(t, s, *tc.body)
			}

			got, err := s.Load()
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSaveLoadClear(t *testing.T) {
	s := newStore(t)
	user := &model.SessionUser{UserID: 42, Username: "admin", Role: "Admin"}

	require.NoError(t, s.Save(Record{Token: "tok", User: user}))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, *user, got)
	assert.Equal(t, "tok", s.Token())

	require.NoError(t, s.Clear())
	_, err = s.Load()
	assert.True(t, errors.Is(err, ErrNoSession))
	assert.Empty(t, s.Token())

	// clearing twice is fine
	require.NoError(t, s.Clear())
}

func TestSaveRejectsNilUser(t *testing.T) {
	require.Error(t, newStore(t).Save(Record{Token: "tok"}))
}

func ptr(s string) *string { return &s }
