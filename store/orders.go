package store

import (
	"context"
	"errors"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/models"

	"gorm.io/gorm"
)

type Orders struct {
	db *gorm.DB
}

func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// Insert persists an accepted order with its items. A repeated
// (user, idempotency key) pair is a Conflict.
func (s *Orders) Insert(ctx context.Context, order *models.Order) error {
	err := s.db.WithContext(ctx).Create(order).Error
	if isUniqueViolation(err) {
		return apperr.New(apperr.KindConflict, "order already recorded")
	}
	return dbError(err, "insert order")
}

// FindByIdempotencyKey returns the user's order recorded under key.
func (s *Orders) FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items", orderByID).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "no order for key")
	}
	if err != nil {
		return nil, dbError(err, "load order")
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Orders) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Order, bool, error) {
	return s.list(ctx, s.db.Where("user_id = ?", userID), offset, limit)
}

// ListByFranchise returns the franchise's orders, newest first.
func (s *Orders) ListByFranchise(ctx context.Context, franchiseID uint, offset, limit int) ([]models.Order, bool, error) {
	return s.list(ctx, s.db.Where("franchise_id = ?", franchiseID), offset, limit)
}

func (s *Orders) list(ctx context.Context, q *gorm.DB, offset, limit int) ([]models.Order, bool, error) {
	var orders []models.Order
	err := q.WithContext(ctx).Preload("Items", orderByID).
		Order("id DESC").
		Offset(offset).Limit(limit + 1).
		Find(&orders).Error
	if err != nil {
		return nil, false, dbError(err, "list orders")
	}
	more := len(orders) > limit
	if more {
		orders = orders[:limit]
	}
	return orders, more, nil
}

// Menu is the read-only catalog.
type Menu struct {
	db *gorm.DB
}

func NewMenu(db *gorm.DB) *Menu {
	return &Menu{db: db}
}

func (s *Menu) List(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, dbError(err, "list menu")
	}
	return items, nil
}

// Count reports how many catalog entries exist.
func (s *Menu) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.MenuItem{}).Count(&n).Error; err != nil {
		return 0, dbError(err, "count menu")
	}
	return n, nil
}

// Add inserts catalog entries. Only startup seeding calls it.
func (s *Menu) Add(ctx context.Context, items []models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	return dbError(s.db.WithContext(ctx).Create(&items).Error, "add menu items")
}
