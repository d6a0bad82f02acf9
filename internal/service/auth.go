package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/go-playground/validator/v10"
)

// bcrypt ignores everything past 72 bytes; longer passwords are refused
// instead of silently truncated.
const maxPasswordBytes = 72

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID, email string) (auth.Token, error)
}

// Session is what a successful sign-up or sign-in hands back.
type Session struct {
	User      user.User `json:"user"`
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthService struct {
	users    UserStore
	hasher   *security.Hasher
	tokens   TokenIssuer
	validate *validator.Validate
	prom     *observability.Prom
}

func NewAuthService(users UserStore, hasher *security.Hasher, tokens TokenIssuer, prom *observability.Prom) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		validate: newValidator(),
		prom:     prom,
	}
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, req user.SignUpRequest) (sess Session, err error) {
	defer func() { s.record("signup", err) }()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = user.NormalizeEmail(req.Email)

	if err = validateInput(s.validate, req); err != nil {
		return Session{}, err
	}
	if len(req.Password) > maxPasswordBytes {
		return Session{}, apperr.Validation("password", "password must be at most 72 bytes")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return Session{}, apperr.Internal("hash password", err)
	}

	u, err := s.users.Create(ctx, user.New(req.Name, req.Email, hash))
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return Session{}, user.ErrEmailTaken
		}
		return Session{}, apperr.Internal("create user", err)
	}

	return s.session(u)
}

// Authenticate answers with the same error for an unknown email and a wrong
// password, and spends a bcrypt comparison either way.
func (s *AuthService) Authenticate(ctx context.Context, req user.SignInRequest) (sess Session, err error) {
	defer func() { s.record("signin", err) }()

	req.Email = user.NormalizeEmail(req.Email)
	if err = validateInput(s.validate, req); err != nil {
		return Session{}, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.CheckDummy(req.Password)
			return Session{}, user.ErrInvalidCredentials
		}
		return Session{}, apperr.Internal("load user", err)
	}

	if !s.hasher.Check(u.PasswordHash, req.Password) {
		return Session{}, user.ErrInvalidCredentials
	}

	return s.session(u)
}

// Me resolves the authenticated user. A token that outlived its account is
// treated like any other unusable token.
func (s *AuthService) Me(ctx context.Context, userID string) (user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, auth.ErrTokenInvalid
		}
		return user.User{}, apperr.Internal("load user", err)
	}
	return u, nil
}

func (s *AuthService) session(u user.User) (Session, error) {
	tok, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return Session{}, apperr.Internal("issue token", err)
	}

	return Session{
		User:      u,
		Token:     tok.Value,
		TokenType: "bearer",
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

func (s *AuthService) record(action string, err error) {
	if s.prom == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = string(apperr.KindOf(err))
	}
	s.prom.AuthAttempts.WithLabelValues(action, result).Inc()
}
