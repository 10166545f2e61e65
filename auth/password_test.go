package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pizza-franchise-api/apperr"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswords_HashAndCompare(t *testing.T) {
	p := NewPasswords(bcrypt.MinCost)
	ctx := context.Background()

	hash, err := p.Hash(ctx, "a")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "a" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("hash does not look like bcrypt: %q", hash)
	}
	if err := p.Compare(ctx, hash, "a"); err != nil {
		t.Fatalf("Compare correct password: %v", err)
	}
	if err := p.Compare(ctx, hash, "b"); !errors.Is(err, apperr.Unauthenticated) {
		t.Fatalf("wrong password should be Unauthenticated, got %v", err)
	}
}

func TestPasswords_SaltedHashesDiffer(t *testing.T) {
	p := NewPasswords(bcrypt.MinCost)
	h1, _ := p.Hash(context.Background(), "same")
	h2, _ := p.Hash(context.Background(), "same")
	if h1 == h2 {
		t.Fatal("two hashes of the same password should differ by salt")
	}
}

func TestPasswords_TimeoutIsUnavailable(t *testing.T) {
	p := NewPasswords(12)
	hash, err := p.Hash(context.Background(), "pw")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = p.Compare(ctx, hash, "pw")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, apperr.Unauthenticated) {
		t.Fatal("a timeout must not be reported as a wrong password")
	}
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindUnavailable || !e.Retryable {
		t.Fatalf("expected retryable Unavailable, got %v", err)
	}
}

func TestPasswords_TooLong(t *testing.T) {
	p := NewPasswords(bcrypt.MinCost)
	_, err := p.Hash(context.Background(), strings.Repeat("x", 100))
	if !errors.Is(err, apperr.Malformed) {
		t.Fatalf("expected Malformed, got %v", err)
	}
}
