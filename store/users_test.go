package store

import (
	"context"
	"errors"
	"testing"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/models"
	"pizza-franchise-api/testdb"
)

func insertUser(t *testing.T, s *Users, name, email string, roles ...models.Role) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []models.Role{models.DinerRole()}
	}
	u := &models.User{Name: name, Email: email, PasswordHash: "hash", Roles: roles}
	if err := s.InsertUser(context.Background(), u); err != nil {
		t.Fatalf("insert %s: %v", email, err)
	}
	return u
}

func TestUsers_InsertAndGet(t *testing.T) {
	s := NewUsers(testdb.Open(t))
	ctx := context.Background()

	u := insertUser(t, s, "pizza diner", "Diner@Test.com")

	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Email != "diner@test.com" {
		t.Errorf("email = %q, want normalized lowercase", got.Email)
	}
	if len(got.Roles) != 1 || got.Roles[0] != models.DinerRole() {
		t.Errorf("roles = %+v, want [diner]", got.Roles)
	}

	byEmail, err := s.GetUserByEmail(ctx, " DINER@test.com ")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("GetUserByEmail id = %d, want %d", byEmail.ID, u.ID)
	}
}

func TestUsers_InsertDuplicateEmailConflicts(t *testing.T) {
	s := NewUsers(testdb.Open(t))
	insertUser(t, s, "a", "dup@test.com")

	err := s.InsertUser(context.Background(), &models.User{Name: "b", Email: "dup@test.com", PasswordHash: "x"})
	if !errors.Is(err, apperr.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestUsers_GetMissingIsNotFound(t *testing.T) {
	s := NewUsers(testdb.Open(t))
	if _, err := s.GetUserByID(context.Background(), 404); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, err := s.GetUserByEmail(context.Background(), "nobody@test.com"); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestUsers_UpdateRoundTrip(t *testing.T) {
	s := NewUsers(testdb.Open(t))
	ctx := context.Background()
	u := insertUser(t, s, "old", "old@test.com")

	name, email, hash := "new", "new@test.com", "newhash"
	updated, err := s.UpdateUser(ctx, u.ID, UserChanges{Name: &name, Email: &email, PasswordHash: &hash})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Name != "new" || updated.Email != "new@test.com" || updated.PasswordHash != "newhash" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Name != "new" || got.Email != "new@test.com" {
		t.Errorf("stored user not updated: %+v", got)
	}
}

func TestUsers_UpdateEmailConflict(t *testing.T) {
	s := NewUsers(testdb.Open(t))
	insertUser(t, s, "a", "a@test.com")
	b := insertUser(t, s, "b", "b@test.com")

	taken := "a@test.com"
	_, err := s.UpdateUser(context.Background(), b.ID, UserChanges{Email: &taken})
	if !errors.Is(err, apperr.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestUsers_UpdateRolesRequiresExistingFranchise(t *testing.T) {
	s := NewUsers(testdb.Open(t))
	u := insertUser(t, s, "a", "a@test.com")

	roles := []models.Role{models.DinerRole(), models.FranchiseeRole(99)}
	_, err := s.UpdateUser(context.Background(), u.ID, UserChanges{Roles: &roles})
	if !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound for dangling franchise role, got %v", err)
	}
}

func TestUsers_DeleteIsLogical(t *testing.T) {
	db := testdb.Open(t)
	s := NewUsers(db)
	ctx := context.Background()
	u := insertUser(t, s, "gone", "gone@test.com")

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetUserByID(ctx, u.ID); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("deleted user should not resolve, got %v", err)
	}

	var count int64
	db.Unscoped().Model(&models.User{}).Where("id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Fatalf("row should be kept for order references, count = %d", count)
	}

	if err := s.DeleteUser(ctx, u.ID); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("second delete should be NotFound, got %v", err)
	}
}

func TestUsers_ListPagination(t *testing.T) {
	s := NewUsers(testdb.Open(t))
	ctx := context.Background()
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		insertUser(t, s, name, name+"@test.com")
	}

	page, more, err := s.ListUsers(ctx, 0, 2, "")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(page) != 2 || !more || page[0].Name != "u1" || page[1].Name != "u2" {
		t.Fatalf("first page = %v more=%v", names(page), more)
	}

	page, more, err = s.ListUsers(ctx, 4, 2, "")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(page) != 1 || more || page[0].Name != "u5" {
		t.Fatalf("last page = %v more=%v", names(page), more)
	}

	page, more, err = s.ListUsers(ctx, 3, 2, "")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(page) != 2 || more {
		t.Fatalf("exactly-full final page should report more=false, got %v more=%v", names(page), more)
	}
}

func TestUsers_ListNamePattern(t *testing.T) {
	s := NewUsers(testdb.Open(t))
	ctx := context.Background()
	for i, name := range []string{"pizza diner", "Pizza Franchisee", "deep pizza", "pizza", "100%_real", "1000 real"} {
		insertUser(t, s, name, string(rune('a'+i))+"@test.com")
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"pizza*", []string{"pizza diner", "Pizza Franchisee", "pizza"}},
		{"*pizza", []string{"deep pizza", "pizza"}},
		{"*pizza*", []string{"pizza diner", "Pizza Franchisee", "deep pizza", "pizza"}},
		{"pizza", []string{"pizza"}},
		{"PIZZA", []string{"pizza"}},
		{"p*z*a d*", []string{"pizza diner"}},
		{"", []string{"pizza diner", "Pizza Franchisee", "deep pizza", "pizza", "100%_real", "1000 real"}},
		{"*", []string{"pizza diner", "Pizza Franchisee", "deep pizza", "pizza", "100%_real", "1000 real"}},
		{"100%*", []string{"100%_real"}},
		{"100_*", nil},
		{"nothing*", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, _, err := s.ListUsers(ctx, 0, 50, tt.pattern)
			if err != nil {
				t.Fatalf("ListUsers: %v", err)
			}
			if !equalStrings(names(got), tt.want) {
				t.Errorf("pattern %q = %v, want %v", tt.pattern, names(got), tt.want)
			}
		})
	}
}

func names(users []models.User) []string {
	var out []string
	for _, u := range users {
		out = append(out, u.Name)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
