// Package account implements the login, signup and logout flows.
package account

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/eventbook/internal/apiclient"
	"github.com/Shivanand-hulikatti/eventbook/internal/logger"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"
	"github.com/Shivanand-hulikatti/eventbook/internal/notify"
	"github.com/Shivanand-hulikatti/eventbook/internal/session"

	"github.com/cockroachdb/errors"
)

// ErrMissingCredentials is returned before any request when a field is empty.
var ErrMissingCredentials = errors.New("username and password are required")

const (
	msgLoginOK      = "Login Success"
	msgLoginFailed  = "Login Failed"
	msgSignupOK     = "Signup Success"
	msgSignupFailed = "Signup Failed"
	msgLoggedOut    = "Logged out"
	msgNetwork      = "Network error - please check if server is running"
)

// Client is the slice of the REST API the flows need.
type Client interface {
	Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error)
	Register(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error)
}

// Store persists the session record.
type Store interface {
	Save(rec session.Record) error
	Clear() error
}

type Service struct {
	client   Client
	store    Store
	notifier notify.Notifier
	logger   *slog.Logger
}

func New(client Client, store Store, notifier notify.Notifier, l *slog.Logger) *Service {
	if l == nil {
		l = logger.Discard()
	}
	return &Service{client: client, store: store, notifier: notifier, logger: l}
}

// Login authenticates and persists the returned token and user.
func (s *Service) Login(ctx context.Context, creds model.Credentials) (model.SessionUser, error) {
	return s.authenticate(ctx, creds, s.client.Login, msgLoginOK, msgLoginFailed)
}

// Signup registers a new account and logs it in.
func (s *Service) Signup(ctx context.Context, creds model.Credentials) (model.SessionUser, error) {
	return s.authenticate(ctx, creds, s.client.Register, msgSignupOK, msgSignupFailed)
}

type authFunc func(context.Context, model.Credentials) (*model.AuthResponse, error)

func (s *Service) authenticate(ctx context.Context, creds model.Credentials, call authFunc, okMsg, failMsg string) (model.SessionUser, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		s.notifier.Error(failMsg)
		return model.SessionUser{}, ErrMissingCredentials
	}

	res, err := call(ctx, creds)
	if err != nil {
		s.logger.Warn("authentication failed", "username", creds.Username, "error", err)
		switch {
		case apiclient.IsTransport(err):
			s.notifier.Error(msgNetwork)
		case apiclient.MessageOf(err) != "":
			s.notifier.Error(apiclient.MessageOf(err))
		default:
			s.notifier.Error(failMsg)
		}
		return model.SessionUser{}, err
	}
	if res == nil || res.User.UserID == 0 {
		s.notifier.Error(failMsg)
		return model.SessionUser{}, errors.New("auth response carries no user")
	}

	user := res.User
	if err := s.store.Save(session.Record{Token: res.Token, User: &user}); err != nil {
		s.notifier.Error(failMsg)
		return model.SessionUser{}, errors.Wrap(err, "save session")
	}
	s.notifier.Success(okMsg)
	return user, nil
}

// Logout forgets the stored session.
func (s *Service) Logout() error {
	if err := s.store.Clear(); err != nil {
		return errors.Wrap(err, "clear session")
	}
	s.notifier.Success(msgLoggedOut)
	return nil
}
