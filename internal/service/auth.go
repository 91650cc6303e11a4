package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventbook/internal/model"
	"github.com/Shivanand-hulikatti/eventbook/internal/repository"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService registers users and issues HS256 tokens.
type AuthService struct {
	users    *repository.UserRepository
	secret   []byte
	ttl      time.Duration
	hashCost int
	now      func() time.Time
}

func NewAuthService(users *repository.UserRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		ttl:      ttl,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// Register creates a User-role account and logs it in.
func (s *AuthService) Register(creds model.Credentials) (model.AuthResponse, error) {
	return s.register(creds, RoleUser)
}

// RegisterAdmin creates an Admin-role account. Used for seeding.
func (s *AuthService) RegisterAdmin(creds model.Credentials) (model.AuthResponse, error) {
	return s.register(creds, RoleAdmin)
}

func (s *AuthService) register(creds model.Credentials, role string) (model.AuthResponse, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return model.AuthResponse{}, invalid("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.hashCost)
	if err != nil {
		return model.AuthResponse{}, errors.Wrap(err, "hash password")
	}
	u, err := s.users.Create(creds.Username, string(hash), role)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(creds model.Credentials) (model.AuthResponse, error) {
	u, err := s.users.GetByUsername(strings.TrimSpace(creds.Username))
	if err != nil {
		return model.AuthResponse{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)) != nil {
		return model.AuthResponse{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) issue(u repository.User) (model.AuthResponse, error) {
	now := s.now().UTC()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return model.AuthResponse{}, errors.Wrap(err, "sign token")
	}
	return model.AuthResponse{
		Token: signed,
		User:  model.SessionUser{UserID: u.ID, Username: u.Username, Role: u.Role},
	}, nil
}

// ParseToken validates a bearer token and returns the user id it was issued
// for.
func (s *AuthService) ParseToken(raw string) (int64, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, errors.Mark(errors.Wrap(err, "parse token"), ErrInvalidToken)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Mark(errors.Newf("bad subject %q", claims.Subject), ErrInvalidToken)
	}
	return id, nil
}
