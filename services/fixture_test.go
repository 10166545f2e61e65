package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/auth"
	"pizza-franchise-api/fulfillment"
	"pizza-franchise-api/models"
	"pizza-franchise-api/policy"
	"pizza-franchise-api/store"
	"pizza-franchise-api/testdb"

	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeFulfiller struct {
	mu       sync.Mutex
	calls    []fulfillment.Request
	rejectAs *apperr.Error
}

func (f *fakeFulfiller) Submit(_ context.Context, req fulfillment.Request) (*fulfillment.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.rejectAs != nil {
		return nil, f.rejectAs
	}
	return &fulfillment.Receipt{JWT: "receipt-" + req.Order.Reference, ReportURL: "http://factory/report"}, nil
}

func (f *fakeFulfiller) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fixture struct {
	users      *store.Users
	franchises *store.Franchises
	orderStore *store.Orders
	menu       *store.Menu
	tokens     *auth.TokenService
	passwords  *auth.Passwords
	fulfiller  *fakeFulfiller

	sessions  *Sessions
	directory *Directory
	hierarchy *Hierarchy
	orders    *Orders
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	f := &fixture{
		users:      store.NewUsers(db),
		franchises: store.NewFranchises(db),
		orderStore: store.NewOrders(db),
		menu:       store.NewMenu(db),
		passwords:  auth.NewPasswords(bcrypt.MinCost),
		fulfiller:  &fakeFulfiller{},
	}
	f.tokens = auth.NewTokenService(testSecret, time.Hour, f.users, auth.NewGormRevocationStore(db))

	opts := Options{StoreTimeout: 5 * time.Second}
	f.sessions = NewSessions(f.users, f.passwords, f.tokens, opts)
	f.directory = NewDirectory(f.users, f.passwords, f.tokens, opts)
	f.hierarchy = NewHierarchy(f.franchises, opts)
	f.orders = NewOrders(f.orderStore, f.menu, f.franchises, f.users, f.fulfiller, time.Second, opts)
	return f
}

// user inserts a user directly and returns it with its subject.
func (f *fixture) user(t *testing.T, name, email string, roles ...models.Role) (*models.User, *policy.Subject) {
	t.Helper()
	if len(roles) == 0 {
		roles = []models.Role{models.DinerRole()}
	}
	hash, err := f.passwords.Hash(context.Background(), "pw")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := &models.User{Name: name, Email: email, PasswordHash: hash, Roles: roles}
	if err := f.users.InsertUser(context.Background(), u); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	return u, &policy.Subject{UserID: u.ID, Roles: u.Roles}
}

// subject re-reads the user's current roles.
func (f *fixture) subject(t *testing.T, id uint) *policy.Subject {
	t.Helper()
	u, err := f.users.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	return &policy.Subject{UserID: u.ID, Roles: u.Roles}
}

// franchise creates a franchise with one store administered by owner.
func (f *fixture) franchise(t *testing.T, admin *policy.Subject, name, ownerEmail string) (*models.Franchise, *models.Store) {
	t.Helper()
	ctx := context.Background()
	fr, err := f.hierarchy.CreateFranchise(ctx, admin, name, []string{ownerEmail})
	if err != nil {
		t.Fatalf("CreateFranchise: %v", err)
	}
	st, err := f.hierarchy.CreateStore(ctx, admin, fr.ID, name+" downtown")
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	return fr, st
}

func kindIs(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if got := apperr.KindOf(err); got != want {
		t.Fatalf("error kind = %q (%v), want %q", got, err, want)
	}
}
