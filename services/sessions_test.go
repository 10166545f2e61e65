package services

import (
	"context"
	"regexp"
	"testing"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/models"
)

var tokenPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]*\.[a-zA-Z0-9\-_]*\.[a-zA-Z0-9\-_]*$`)

func TestSessions_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.sessions.Register(ctx, RegisterInput{Name: "pizza diner", Email: "reg@test.com", Password: "a"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !tokenPattern.MatchString(reg.Token) {
		t.Errorf("register token %q has the wrong shape", reg.Token)
	}

	login, err := f.sessions.Login(ctx, "reg@test.com", "a")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !tokenPattern.MatchString(login.Token) {
		t.Errorf("login token %q has the wrong shape", login.Token)
	}
	if login.User.Name != "pizza diner" || login.User.Email != "reg@test.com" {
		t.Errorf("user = %+v", login.User)
	}
	if len(login.User.Roles) != 1 || login.User.Roles[0] != models.DinerRole() {
		t.Errorf("roles = %+v, want [diner]", login.User.Roles)
	}
	if _, err := f.tokens.Verify(ctx, login.Token); err != nil {
		t.Errorf("login token should verify: %v", err)
	}
}

func TestSessions_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, in := range []RegisterInput{
		{Email: "a@test.com", Password: "a"},
		{Name: "n", Password: "a"},
		{Name: "n", Email: "a@test.com"},
		{Name: "  ", Email: "a@test.com", Password: "a"},
	} {
		_, err := f.sessions.Register(ctx, in)
		kindIs(t, err, apperr.KindMalformed)
	}
}

func TestSessions_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.sessions.Register(ctx, RegisterInput{Name: "a", Email: "dup@test.com", Password: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := f.sessions.Register(ctx, RegisterInput{Name: "b", Email: "DUP@test.com", Password: "b"})
	kindIs(t, err, apperr.KindConflict)
}

func TestSessions_LoginFailuresAreUnauthenticated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "pizza diner", "d@test.com")

	_, err := f.sessions.Login(ctx, "d@test.com", "wrong")
	kindIs(t, err, apperr.KindUnauthenticated)

	_, err = f.sessions.Login(ctx, "nobody@test.com", "pw")
	kindIs(t, err, apperr.KindUnauthenticated)

	_, err = f.sessions.Login(ctx, "", "pw")
	kindIs(t, err, apperr.KindMalformed)
}

func TestSessions_LogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.sessions.Register(ctx, RegisterInput{Name: "a", Email: "out@test.com", Password: "a"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := f.sessions.Logout(ctx, s.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	_, err = f.tokens.Verify(ctx, s.Token)
	kindIs(t, err, apperr.KindRevoked)

	err = f.sessions.Logout(ctx, s.Token)
	kindIs(t, err, apperr.KindRevoked)

	err = f.sessions.Logout(ctx, "not-a-token")
	kindIs(t, err, apperr.KindMalformed)
}
