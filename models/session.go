package models

import "time"

// RevokedToken is a denylisted token id. Rows past ExpiresAt can be purged:
// the token would fail verification as expired anyway.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"`
	UserID    uint      `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// UserRevocation revokes every token of a user issued at or before RevokedAt.
type UserRevocation struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"`
	RevokedAt time.Time `gorm:"not null"`
}

// All lists every model for migrations.
func All() []any {
	return []any{
		&User{},
		&UserRole{},
		&Franchise{},
		&Store{},
		&MenuItem{},
		&Order{},
		&OrderItem{},
		&RevokedToken{},
		&UserRevocation{},
	}
}
