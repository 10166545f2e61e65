package models

import (
	"time"

	"gorm.io/gorm"
)

// RoleKind is the closed set of role kinds a user can hold.
type RoleKind string

const (
	RoleAdmin      RoleKind = "admin"
	RoleFranchisee RoleKind = "franchisee"
	RoleDiner      RoleKind = "diner"
)

// Role is one role assignment. FranchiseID is only meaningful for
// RoleFranchisee and is zero otherwise.
type Role struct {
	Kind        RoleKind `json:"role"`
	FranchiseID uint     `json:"objectId,omitempty"`
}

func AdminRole() Role { return Role{Kind: RoleAdmin} }
func DinerRole() Role { return Role{Kind: RoleDiner} }
func FranchiseeRole(id uint) Role { return Role{Kind: RoleFranchisee, FranchiseID: id} }

// Valid reports whether r is a well-formed role.
func (r Role) Valid() bool {
	switch r.Kind {
	case RoleAdmin, RoleDiner:
		return r.FranchiseID == 0
	case RoleFranchisee:
		return r.FranchiseID != 0
	default:
		return false
	}
}

// UserRole is the persisted form of a Role.
type UserRole struct {
	ID       uint     `gorm:"primaryKey"`
	UserID   uint     `gorm:"not null;index"`
	Role     RoleKind `gorm:"not null;size:32"`
	ObjectID uint     `gorm:"not null;default:0;index"`
}

func (r UserRole) AsRole() Role {
	return Role{Kind: r.Role, FranchiseID: r.ObjectID}
}

// User is a registered account. Deleting a user is a soft delete so orders
// keep their reference; a soft-deleted user can no longer authenticate.
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"not null"`
	Roles        []Role         `json:"roles" gorm:"-"`
	RoleRows     []UserRole     `json:"-" gorm:"foreignKey:UserID"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// SyncRoles fills Roles from the loaded RoleRows.
func (u *User) SyncRoles() {
	u.Roles = make([]Role, 0, len(u.RoleRows))
	for _, row := range u.RoleRows {
		u.Roles = append(u.Roles, row.AsRole())
	}
}

// HasRole reports whether the user holds a role of the given kind.
func (u *User) HasRole(kind RoleKind) bool {
	for _, r := range u.Roles {
		if r.Kind == kind {
			return true
		}
	}
	return false
}
