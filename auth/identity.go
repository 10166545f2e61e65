// Package auth issues, verifies and revokes bearer tokens and hashes
// passwords. Verification always re-reads the subject from the credential
// store so authorization sees the current role set.
package auth

import (
	"time"

	"pizza-franchise-api/models"
	"pizza-franchise-api/policy"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed token payload.
type Claims struct {
	UserID uint          `json:"uid"`
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Roles  []models.Role `json:"roles"`
	jwt.RegisteredClaims
}

// Identity is a verified token holder.
type Identity struct {
	UserID uint
	Name   string
	Email  string
	// Roles is the role set read from the credential store at verification.
	Roles []models.Role
	// TokenRoles is the role set embedded when the token was issued.
	TokenRoles []models.Role
	TokenID    string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// Subject is the identity as the authorization engine sees it.
func (i *Identity) Subject() *policy.Subject {
	if i == nil {
		return nil
	}
	return &policy.Subject{UserID: i.UserID, Roles: i.Roles}
}
