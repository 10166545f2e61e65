package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/auth"
	"pizza-franchise-api/models"
	"pizza-franchise-api/store"
)

// Session is a user together with a freshly issued token.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Sessions implements register, login and logout.
type Sessions struct {
	env
	users     *store.Users
	passwords *auth.Passwords
	tokens    *auth.TokenService

	// decoy is compared against when the email is unknown so a miss costs
	// the same as a wrong password.
	decoy func() (string, error)
}

func NewSessions(users *store.Users, passwords *auth.Passwords, tokens *auth.TokenService, opts Options) *Sessions {
	return &Sessions{
		env:       newEnv(opts),
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		decoy: sync.OnceValues(func() (string, error) {
			return passwords.Hash(context.Background(), "decoy-password-for-unknown-users")
		}),
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a diner account and signs it in.
func (s *Sessions) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.New(apperr.KindMalformed, "name, email, and password are required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	hash, err := s.passwords.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        []models.Role{models.DinerRole()},
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		s.metrics.RecordLogin("register_failed")
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin("registered")
	s.logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	return &Session{User: user, Token: token}, nil
}

// Login checks the credentials and issues a token. An unknown email and a
// wrong password are the same Unauthenticated error.
func (s *Sessions) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.New(apperr.KindMalformed, "email and password are required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperr.NotFound) {
		if decoy, derr := s.decoy(); derr == nil {
			if cerr := s.passwords.Compare(ctx, decoy, password); errors.Is(cerr, apperr.Unavailable) {
				return nil, cerr
			}
		}
		s.metrics.RecordLogin("invalid")
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, err
	}

	if err := s.passwords.Compare(ctx, user.PasswordHash, password); err != nil {
		if errors.Is(err, apperr.Unauthenticated) {
			s.metrics.RecordLogin("invalid")
		} else {
			s.metrics.RecordLogin("error")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin("success")
	return &Session{User: user, Token: token}, nil
}

// Logout revokes the token. A token that no longer verifies fails with its
// verification error.
func (s *Sessions) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return err
	}
	s.metrics.RecordLogin("logout")
	return nil
}
