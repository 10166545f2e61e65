package services

import (
	"context"
	"log/slog"
	"strings"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/models"
	"pizza-franchise-api/policy"
	"pizza-franchise-api/store"
)

// Hierarchy manages franchises, their stores and their admins.
type Hierarchy struct {
	env
	franchises *store.Franchises
}

func NewHierarchy(franchises *store.Franchises, opts Options) *Hierarchy {
	return &Hierarchy{env: newEnv(opts), franchises: franchises}
}

type FranchisePage struct {
	Franchises []models.Franchise `json:"franchises"`
	More       bool               `json:"more"`
}

// CreateFranchise creates the franchise and makes every listed user one of
// its admins. Admin only.
func (h *Hierarchy) CreateFranchise(ctx context.Context, s *policy.Subject, name string, adminEmails []string) (*models.Franchise, error) {
	if err := h.require(s, policy.ActionCreate, policy.Franchise(0)); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindMalformed, "franchise name is required")
	}
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	f, err := h.franchises.Create(ctx, name, adminEmails)
	if err != nil {
		return nil, err
	}
	h.logger.Info("franchise created",
		slog.Uint64("franchise_id", uint64(f.ID)),
		slog.Int("admins", len(f.Admins)),
	)
	return f, nil
}

// DeleteFranchise removes the franchise, its stores and every franchisee
// role pointing at it. Admin only.
func (h *Hierarchy) DeleteFranchise(ctx context.Context, s *policy.Subject, franchiseID uint) error {
	if err := h.require(s, policy.ActionDelete, policy.Franchise(franchiseID)); err != nil {
		return err
	}
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	if err := h.franchises.Delete(ctx, franchiseID); err != nil {
		return err
	}
	h.logger.Info("franchise deleted", slog.Uint64("franchise_id", uint64(franchiseID)))
	return nil
}

func (h *Hierarchy) CreateStore(ctx context.Context, s *policy.Subject, franchiseID uint, name string) (*models.Store, error) {
	if err := h.require(s, policy.ActionCreate, policy.Store(franchiseID)); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindMalformed, "store name is required")
	}
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	return h.franchises.CreateStore(ctx, franchiseID, name)
}

func (h *Hierarchy) DeleteStore(ctx context.Context, s *policy.Subject, franchiseID, storeID uint) error {
	if err := h.require(s, policy.ActionDelete, policy.Store(franchiseID)); err != nil {
		return err
	}
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	return h.franchises.DeleteStore(ctx, franchiseID, storeID)
}

// ListFranchises is the public franchise catalog. Admins also see each
// franchise's admins.
func (h *Hierarchy) ListFranchises(ctx context.Context, s *policy.Subject, page Page, pattern string) (*FranchisePage, error) {
	if err := h.require(s, policy.ActionList, policy.Franchise(0)); err != nil {
		return nil, err
	}
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	list, more, err := h.franchises.List(ctx, page.Offset(), page.Limit, pattern, policy.IsAdmin(s))
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Franchise{}
	}
	return &FranchisePage{Franchises: list, More: more}, nil
}

// ListUserFranchises returns the franchises userID administers.
func (h *Hierarchy) ListUserFranchises(ctx context.Context, s *policy.Subject, userID uint) ([]models.Franchise, error) {
	if err := h.require(s, policy.ActionRead, policy.User(userID)); err != nil {
		return nil, err
	}
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	list, err := h.franchises.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Franchise{}
	}
	return list, nil
}
