package auth

import (
	"context"
	"errors"

	"pizza-franchise-api/apperr"

	"golang.org/x/crypto/bcrypt"
)

// Passwords hashes and checks passwords with bcrypt, which salts every hash
// and compares digests in constant time.
type Passwords struct {
	cost int
}

func NewPasswords(cost int) *Passwords {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Passwords{cost: cost}
}

type bcryptResult struct {
	hash []byte
	err  error
}

// Hash returns the bcrypt hash of plain.
func (p *Passwords) Hash(ctx context.Context, plain string) (string, error) {
	done := make(chan bcryptResult, 1)
	go func() {
		h, err := bcrypt.GenerateFromPassword([]byte(plain), p.cost)
		done <- bcryptResult{hash: h, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", apperr.FromContext(ctx.Err(), "password hashing")
	case r := <-done:
		if errors.Is(r.err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.New(apperr.KindMalformed, "password is longer than 72 bytes")
		}
		if r.err != nil {
			return "", apperr.Wrap(apperr.KindInternal, r.err, "password hashing failed")
		}
		return string(r.hash), nil
	}
}

// Compare returns nil when plain matches hash and Unauthenticated when it
// does not. A deadline is reported as Unavailable so a slow check is never
// mistaken for a wrong password.
func (p *Passwords) Compare(ctx context.Context, hash, plain string) error {
	done := make(chan error, 1)
	go func() {
		done <- bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	}()
	select {
	case <-ctx.Done():
		return apperr.FromContext(ctx.Err(), "password check")
	case err := <-done:
		if err == nil {
			return nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperr.New(apperr.KindUnauthenticated, "invalid email or password")
		}
		return apperr.Wrap(apperr.KindInternal, err, "password check failed")
	}
}
