package auth

import (
	"context"
	"errors"
	"regexp"
	"time"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenShape is header.payload.signature in base64url. Anything else is
// rejected before signature work.
var tokenShape = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

// UserLookup is the slice of the credential store the token service needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// TokenService signs HS256 session tokens and checks them against the
// revocation store and the credential store.
type TokenService struct {
	secret      []byte
	ttl         time.Duration
	timeout     time.Duration
	users       UserLookup
	revocations RevocationStore
	now         func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now. Tests use it to expire tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithTimeout bounds every credential and revocation store call.
func WithTimeout(d time.Duration) TokenOption {
	return func(s *TokenService) { s.timeout = d }
}

func NewTokenService(secret []byte, ttl time.Duration, users UserLookup, revocations RevocationStore, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret:      secret,
		ttl:         ttl,
		timeout:     3 * time.Second,
		users:       users,
		revocations: revocations,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for a freshly authenticated user.
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	roles := user.Roles
	if roles == nil {
		roles = []models.Role{}
	}
	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, err, "token signing failed")
	}
	return token, nil
}

// Verify returns the identity behind raw or an error of kind Malformed,
// Expired, Revoked or UnknownSubject. Store timeouts surface as Unavailable.
func (s *TokenService) Verify(ctx context.Context, raw string) (*Identity, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID, claims.UserID, claims.IssuedAt.Time)
	if err != nil {
		return nil, apperr.FromContext(err, "revocation lookup")
	}
	if revoked {
		return nil, apperr.New(apperr.KindRevoked, "token has been revoked")
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, apperr.NotFound) {
		return nil, apperr.New(apperr.KindUnknownSubject, "token subject no longer exists")
	}
	if err != nil {
		return nil, err
	}

	return &Identity{
		UserID:     user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Roles:      user.Roles,
		TokenRoles: claims.Roles,
		TokenID:    claims.ID,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

// Revoke verifies raw and then denylists it until its expiry. A token that
// no longer verifies fails with the verification error.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	id, err := s.Verify(ctx, raw)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.revocations.Revoke(ctx, id.TokenID, id.UserID, id.ExpiresAt, id.ExpiresAt.Sub(s.now())); err != nil {
		return apperr.FromContext(err, "revocation write")
	}
	return nil
}

// RevokeAllForUser revokes every token issued to the user up to now.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.revocations.RevokeUser(ctx, userID, s.now(), s.ttl); err != nil {
		return apperr.FromContext(err, "revocation write")
	}
	return nil
}

func (s *TokenService) parse(raw string) (*Claims, error) {
	if !tokenShape.MatchString(raw) {
		return nil, apperr.New(apperr.KindMalformed, "token is not a three-segment bearer token")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperr.New(apperr.KindExpired, "token has expired")
	default:
		return nil, apperr.New(apperr.KindMalformed, "token could not be verified")
	}
	if claims.ID == "" || claims.UserID == 0 || claims.IssuedAt == nil {
		return nil, apperr.New(apperr.KindMalformed, "token is missing required claims")
	}
	return claims, nil
}
