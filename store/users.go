package store

import (
	"context"
	"errors"
	"strings"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/models"

	"gorm.io/gorm"
)

// Users is the credential store.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// UserChanges lists the fields an update may touch. Nil means unchanged.
type UserChanges struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Roles        *[]models.Role
}

// GetUserByID returns a live user with roles loaded.
func (s *Users) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("RoleRows").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "user %d not found", id)
	}
	if err != nil {
		return nil, dbError(err, "load user")
	}
	user.SyncRoles()
	return &user, nil
}

// GetUserByEmail returns a live user with roles loaded.
func (s *Users) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("RoleRows").
		Where("email = ?", normalizeEmail(email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "unknown user email %s", email)
	}
	if err != nil {
		return nil, dbError(err, "load user")
	}
	user.SyncRoles()
	return &user, nil
}

// InsertUser creates the user and its role rows in one transaction.
// A taken email, even one belonging to a deleted user, is a Conflict.
func (s *Users) InsertUser(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("RoleRows").Create(user).Error; err != nil {
			return err
		}
		return replaceRoles(tx, user.ID, user.Roles)
	})
	if isUniqueViolation(err) {
		return apperr.New(apperr.KindConflict, "email %s is already registered", user.Email)
	}
	if err != nil {
		return dbError(err, "insert user")
	}
	return nil
}

// UpdateUser applies changes and returns the stored result.
func (s *Users) UpdateUser(ctx context.Context, id uint, changes UserChanges) (*models.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{}
		if changes.Name != nil {
			updates["name"] = *changes.Name
		}
		if changes.Email != nil {
			updates["email"] = normalizeEmail(*changes.Email)
		}
		if changes.PasswordHash != nil {
			updates["password_hash"] = *changes.PasswordHash
		}

		var existing models.User
		if err := tx.Select("id").First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "user %d not found", id)
			}
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if changes.Roles != nil {
			return replaceRoles(tx, id, *changes.Roles)
		}
		return nil
	})
	if isUniqueViolation(err) && changes.Email != nil {
		return nil, apperr.New(apperr.KindConflict, "email %s is already registered", *changes.Email)
	}
	if err != nil {
		return nil, dbError(err, "update user")
	}
	return s.GetUserByID(ctx, id)
}

// DeleteUser soft-deletes the user. Role rows and orders are kept.
func (s *Users) DeleteUser(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return dbError(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "user %d not found", id)
	}
	return nil
}

// ListUsers returns users ordered by id whose name matches pattern, plus
// whether at least one more row exists past offset+limit.
func (s *Users) ListUsers(ctx context.Context, offset, limit int, pattern string) ([]models.User, bool, error) {
	q := s.db.WithContext(ctx).Preload("RoleRows").Order("id ASC")
	q = whereNameMatches(q, "name", pattern)

	var users []models.User
	if err := q.Offset(offset).Limit(limit + 1).Find(&users).Error; err != nil {
		return nil, false, dbError(err, "list users")
	}
	more := len(users) > limit
	if more {
		users = users[:limit]
	}
	for i := range users {
		users[i].SyncRoles()
	}
	return users, more, nil
}

func replaceRoles(tx *gorm.DB, userID uint, roles []models.Role) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}
	rows := make([]models.UserRole, 0, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return apperr.New(apperr.KindMalformed, "invalid role %q", r.Kind)
		}
		if r.Kind == models.RoleFranchisee {
			var count int64
			if err := tx.Model(&models.Franchise{}).Where("id = ?", r.FranchiseID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return apperr.New(apperr.KindNotFound, "franchise %d not found", r.FranchiseID)
			}
		}
		rows = append(rows, models.UserRole{UserID: userID, Role: r.Kind, ObjectID: r.FranchiseID})
	}
	return tx.Create(&rows).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
