package store

import (
	"context"
	"errors"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/models"

	"gorm.io/gorm"
)

// Franchises persists franchises, their stores and the franchisee role rows
// that point at them. Mutations under one franchise bump its version inside
// the same transaction, which takes a row lock on postgres and the database
// write lock on sqlite, so they serialize per franchise.
type Franchises struct {
	db *gorm.DB
}

func NewFranchises(db *gorm.DB) *Franchises {
	return &Franchises{db: db}
}

// Create inserts the franchise and grants every admin the franchisee role.
func (s *Franchises) Create(ctx context.Context, name string, adminEmails []string) (*models.Franchise, error) {
	franchise := &models.Franchise{Name: name, Stores: []models.Store{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admins := make([]models.User, 0, len(adminEmails))
		for _, email := range adminEmails {
			var u models.User
			err := tx.Where("email = ?", normalizeEmail(email)).First(&u).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "unknown user email %s", email)
			}
			if err != nil {
				return err
			}
			admins = append(admins, u)
		}

		if err := tx.Omit("Stores").Create(franchise).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.New(apperr.KindConflict, "franchise %q already exists", name)
			}
			return err
		}

		seen := make(map[uint]bool, len(admins))
		for _, u := range admins {
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			row := models.UserRole{UserID: u.ID, Role: models.RoleFranchisee, ObjectID: franchise.ID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			franchise.Admins = append(franchise.Admins, models.FranchiseAdmin{ID: u.ID, Name: u.Name, Email: u.Email})
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "create franchise")
	}
	return franchise, nil
}

// Get loads a franchise with its stores and admins.
func (s *Franchises) Get(ctx context.Context, id uint) (*models.Franchise, error) {
	var f models.Franchise
	err := s.db.WithContext(ctx).Preload("Stores", orderByID).First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "franchise %d not found", id)
	}
	if err != nil {
		return nil, dbError(err, "load franchise")
	}
	list := []models.Franchise{f}
	if err := s.attachAdmins(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// GetStore returns the store only if it belongs to the franchise.
func (s *Franchises) GetStore(ctx context.Context, franchiseID, storeID uint) (*models.Store, error) {
	var st models.Store
	err := s.db.WithContext(ctx).
		Where("id = ? AND franchise_id = ?", storeID, franchiseID).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "store %d not found in franchise %d", storeID, franchiseID)
	}
	if err != nil {
		return nil, dbError(err, "load store")
	}
	return &st, nil
}

// CreateStore adds a store to an existing franchise.
func (s *Franchises) CreateStore(ctx context.Context, franchiseID uint, name string) (*models.Store, error) {
	st := &models.Store{FranchiseID: franchiseID, Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, franchiseID); err != nil {
			return err
		}
		return tx.Create(st).Error
	})
	if err != nil {
		return nil, dbError(err, "create store")
	}
	return st, nil
}

// DeleteStore removes a store of the franchise.
func (s *Franchises) DeleteStore(ctx context.Context, franchiseID, storeID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, franchiseID); err != nil {
			return err
		}
		res := tx.Where("id = ? AND franchise_id = ?", storeID, franchiseID).Delete(&models.Store{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.KindNotFound, "store %d not found in franchise %d", storeID, franchiseID)
		}
		return nil
	})
	return dbError(err, "delete store")
}

// Delete removes the franchise, its stores and every franchisee role row
// pointing at it.
func (s *Franchises) Delete(ctx context.Context, franchiseID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, franchiseID); err != nil {
			return err
		}
		if err := tx.Where("franchise_id = ?", franchiseID).Delete(&models.Store{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role = ? AND object_id = ?", models.RoleFranchisee, franchiseID).
			Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Franchise{}, franchiseID).Error
	})
	return dbError(err, "delete franchise")
}

// List returns franchises ordered by id whose name matches filter.
func (s *Franchises) List(ctx context.Context, offset, limit int, filter string, withAdmins bool) ([]models.Franchise, bool, error) {
	q := s.db.WithContext(ctx).Preload("Stores", orderByID).Order("id ASC")
	q = whereNameMatches(q, "name", filter)

	var list []models.Franchise
	if err := q.Offset(offset).Limit(limit + 1).Find(&list).Error; err != nil {
		return nil, false, dbError(err, "list franchises")
	}
	more := len(list) > limit
	if more {
		list = list[:limit]
	}
	if withAdmins {
		if err := s.attachAdmins(ctx, list); err != nil {
			return nil, false, err
		}
	}
	return list, more, nil
}

// ListForUser returns the franchises the user administers.
func (s *Franchises) ListForUser(ctx context.Context, userID uint) ([]models.Franchise, error) {
	sub := s.db.Model(&models.UserRole{}).
		Select("object_id").
		Where("user_id = ? AND role = ?", userID, models.RoleFranchisee)

	var list []models.Franchise
	err := s.db.WithContext(ctx).Preload("Stores", orderByID).
		Where("id IN (?)", sub).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, dbError(err, "list user franchises")
	}
	if err := s.attachAdmins(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

type adminRow struct {
	ID       uint
	Name     string
	Email    string
	ObjectID uint
}

func (s *Franchises) attachAdmins(ctx context.Context, list []models.Franchise) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint, len(list))
	for i, f := range list {
		ids[i] = f.ID
	}
	var rows []adminRow
	err := s.db.WithContext(ctx).Table("user_roles").
		Select("users.id, users.name, users.email, user_roles.object_id").
		Joins("JOIN users ON users.id = user_roles.user_id AND users.deleted_at IS NULL").
		Where("user_roles.role = ? AND user_roles.object_id IN ?", models.RoleFranchisee, ids).
		Order("users.id ASC").
		Scan(&rows).Error
	if err != nil {
		return dbError(err, "load franchise admins")
	}
	byFranchise := make(map[uint][]models.FranchiseAdmin, len(list))
	for _, r := range rows {
		byFranchise[r.ObjectID] = append(byFranchise[r.ObjectID], models.FranchiseAdmin{ID: r.ID, Name: r.Name, Email: r.Email})
	}
	for i := range list {
		list[i].Admins = byFranchise[list[i].ID]
	}
	return nil
}

func bumpVersion(tx *gorm.DB, franchiseID uint) error {
	res := tx.Model(&models.Franchise{}).
		Where("id = ?", franchiseID).
		UpdateColumn("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "franchise %d not found", franchiseID)
	}
	return nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
