package models

import "time"

// Order is immutable once the fulfillment collaborator accepted it.
type Order struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	Reference      string      `json:"reference" gorm:"uniqueIndex;not null;size:36"`
	UserID         uint        `json:"dinerId" gorm:"not null;index;uniqueIndex:idx_orders_user_idem"`
	FranchiseID    uint        `json:"franchiseId" gorm:"not null;index"`
	StoreID        uint        `json:"storeId" gorm:"not null"`
	IdempotencyKey *string     `json:"-" gorm:"uniqueIndex:idx_orders_user_idem;size:128"`
	Receipt        string      `json:"-"`
	ReportURL      string      `json:"-"`
	Items          []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time   `json:"date"`
}

type OrderItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	OrderID     uint    `json:"-" gorm:"not null;index"`
	MenuID      uint    `json:"menuId" gorm:"not null"`
	Description string  `json:"description" gorm:"not null"`
	Price       float64 `json:"price" gorm:"not null"`
}
