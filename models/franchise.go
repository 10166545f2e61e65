package models

import "time"

// Franchise owns stores. Version is bumped by every mutation under the
// franchise so concurrent create-store and delete-franchise serialize on it.
type Franchise struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	Name      string           `json:"name" gorm:"uniqueIndex;not null"`
	Version   int64            `json:"-" gorm:"not null;default:0"`
	Admins    []FranchiseAdmin `json:"admins,omitempty" gorm:"-"`
	Stores    []Store          `json:"stores" gorm:"foreignKey:FranchiseID"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"-"`
}

// FranchiseAdmin is the public view of a user holding the franchisee role.
type FranchiseAdmin struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Store struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FranchiseID uint      `json:"franchiseId" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MenuItem is a read-only catalog entry.
type MenuItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price" gorm:"not null"`
}
