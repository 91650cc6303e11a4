package account

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/Shivanand-hulikatti/eventbook/internal/apiclient"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"
	"github.com/Shivanand-hulikatti/eventbook/internal/notify"
	"github.com/Shivanand-hulikatti/eventbook/internal/session"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	login    func(model.Credentials) (*model.AuthResponse, error)
	register func(model.Credentials) (*model.AuthResponse, error)
	calls    int
}

func (f *fakeClient) Login(_ context.Context, c model.Credentials) (*model.AuthResponse, error) {
	f.calls++
	return f.login(c)
}

func (f *fakeClient) Register(_ context.Context, c model.Credentials) (*model.AuthResponse, error) {
	f.calls++
	return f.register(c)
}

func ok(c model.Credentials) (*model.AuthResponse, error) {
	return &model.AuthResponse{
		Token: "tok-" + c.Username,
		User:  model.SessionUser{UserID: 7, Username: c.Username, Role: "User"},
	}, nil
}

func setup(t *testing.T, client *fakeClient) (*Service, *session.FileStore, *notify.Recorder) {
	t.Helper()
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	rec := &notify.Recorder{}
	return New(client, store, rec, nil), store, rec
}

func TestLoginPersistsSession(t *testing.T) {
	svc, store, rec := setup(t, &fakeClient{login: ok})

	user, err := svc.Login(t.Context(), model.Credentials{Username: " jane ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jane", user.Username)

	loaded, err := store.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(user, loaded); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "tok-jane", store.Token())
	assert.Equal(t, notify.Message{Kind: notify.KindSuccess, Text: "Login Success"}, rec.Last())
}

func TestSignupPersistsSession(t *testing.T) {
	svc, store, rec := setup(t, &fakeClient{register: ok})

	_, err := svc.Signup(t.Context(), model.Credentials{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-bob", store.Token())
	assert.Equal(t, "Signup Success", rec.Last().Text)
}

func TestAuthFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message",
			err:  &apiclient.StatusError{Status: http.StatusUnauthorized, Message: "Invalid username or password"},
			want: "Invalid username or password",
		},
		{
			name: "bare status",
			err:  &apiclient.StatusError{Status: http.StatusInternalServerError},
			want: "Login Failed",
		},
		{
			name: "transport",
			err:  errors.Mark(errors.New("dial tcp: refused"), apiclient.ErrTransport),
			want: "Network error - please check if server is running",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{login: func(model.Credentials) (*model.AuthResponse, error) { return nil, tc.err }}
			svc, store, rec := setup(t, client)

			_, err := svc.Login(t.Context(), model.Credentials{Username: "jane", Password: "pw"})
			require.Error(t, err)
			assert.Equal(t, notify.Message{Kind: notify.KindError, Text: tc.want}, rec.Last())

			_, err = store.Load()
			assert.True(t, errors.Is(err, session.ErrNoSession))
		})
	}
}

func TestMissingCredentialsSkipRequest(t *testing.T) {
	client := &fakeClient{register: ok}
	svc, _, rec := setup(t, client)

	_, err := svc.Signup(t.Context(), model.Credentials{Username: "  ", Password: "pw"})
	assert.True(t, errors.Is(err, ErrMissingCredentials))
	assert.Zero(t, client.calls)
	assert.Equal(t, "Signup Failed", rec.Last().Text)
}

func TestResponseWithoutUserIsRejected(t *testing.T) {
	client := &fakeClient{login: func(model.Credentials) (*model.AuthResponse, error) {
		return &model.AuthResponse{Token: "tok"}, nil
	}}
	svc, store, rec := setup(t, client)

	_, err := svc.Login(t.Context(), model.Credentials{Username: "jane", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, "Login Failed", rec.Last().Text)
	assert.Empty(t, store.Token())
}

func TestLogout(t *testing.T) {
	svc, store, rec := setup(t, &fakeClient{login: ok})
	_, err := svc.Login(t.Context(), model.Credentials{Username: "jane", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout())
	_, err = store.Load()
	assert.True(t, errors.Is(err, session.ErrNoSession))
	assert.Equal(t, "Logged out", rec.Last().Text)

	require.NoError(t, svc.Logout(), "logging out twice is fine")
}
