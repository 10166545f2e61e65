package services

import (
	"context"
	"log/slog"
	"strings"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/auth"
	"pizza-franchise-api/models"
	"pizza-franchise-api/policy"
	"pizza-franchise-api/store"
)

// UserRevoker revokes every outstanding token of a user.
type UserRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint) error
}

// Directory is the user directory.
type Directory struct {
	env
	users     *store.Users
	passwords *auth.Passwords
	revoker   UserRevoker
}

func NewDirectory(users *store.Users, passwords *auth.Passwords, revoker UserRevoker, opts Options) *Directory {
	return &Directory{env: newEnv(opts), users: users, passwords: passwords, revoker: revoker}
}

type UserPage struct {
	Users []models.User `json:"users"`
	More  bool          `json:"more"`
}

// CanList reports whether s may page through the directory, so callers can
// refuse before looking at paging parameters.
func (d *Directory) CanList(s *policy.Subject) error {
	return d.require(s, policy.ActionList, policy.User(0))
}

// List returns one page of users whose name matches pattern. Admin only.
func (d *Directory) List(ctx context.Context, s *policy.Subject, page Page, pattern string) (*UserPage, error) {
	if err := d.require(s, policy.ActionList, policy.User(0)); err != nil {
		return nil, err
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	users, more, err := d.users.ListUsers(ctx, page.Offset(), page.Limit, pattern)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserPage{Users: users, More: more}, nil
}

func (d *Directory) Get(ctx context.Context, s *policy.Subject, id uint) (*models.User, error) {
	if err := d.require(s, policy.ActionRead, policy.User(id)); err != nil {
		return nil, err
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.users.GetUserByID(ctx, id)
}

// UserUpdate lists requested changes; nil fields are left alone.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Roles    *[]models.Role
}

// Update applies the changes. Only admins may change roles.
func (d *Directory) Update(ctx context.Context, s *policy.Subject, id uint, in UserUpdate) (*models.User, error) {
	if err := d.require(s, policy.ActionUpdate, policy.User(id)); err != nil {
		return nil, err
	}
	if in.Roles != nil && !policy.IsAdmin(s) {
		return nil, apperr.New(apperr.KindForbidden, "only an admin may change roles")
	}

	var changes store.UserChanges
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.New(apperr.KindMalformed, "name must not be empty")
		}
		changes.Name = &name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, apperr.New(apperr.KindMalformed, "email must not be empty")
		}
		changes.Email = &email
	}
	changes.Roles = in.Roles

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	if in.Password != nil {
		if *in.Password == "" {
			return nil, apperr.New(apperr.KindMalformed, "password must not be empty")
		}
		hash, err := d.passwords.Hash(ctx, *in.Password)
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = &hash
	}

	user, err := d.users.UpdateUser(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	d.logger.Info("user updated",
		slog.Uint64("user_id", uint64(id)),
		slog.Uint64("by", uint64(s.UserID)),
		slog.Bool("roles_changed", in.Roles != nil),
	)
	return user, nil
}

// Delete revokes the user's tokens and then removes the user logically.
// Nothing is deleted when the revocation fails. Orders and franchise role
// rows stay.
func (d *Directory) Delete(ctx context.Context, s *policy.Subject, id uint) error {
	if err := d.require(s, policy.ActionDelete, policy.User(id)); err != nil {
		return err
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	if _, err := d.users.GetUserByID(ctx, id); err != nil {
		return err
	}
	if err := d.revoker.RevokeAllForUser(ctx, id); err != nil {
		d.logger.Warn("revoking tokens before delete failed",
			slog.Uint64("user_id", uint64(id)),
			slog.String("error", err.Error()),
		)
		return err
	}
	if err := d.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	d.logger.Info("user deleted", slog.Uint64("user_id", uint64(id)), slog.Uint64("by", uint64(s.UserID)))
	return nil
}
