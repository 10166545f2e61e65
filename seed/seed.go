// Package seed prepares a fresh database: a bootstrap admin account and the
// default menu. Both steps are no-ops when the data already exists.
package seed

import (
	"context"
	"errors"
	"log/slog"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/auth"
	"pizza-franchise-api/models"
	"pizza-franchise-api/store"
)

// DefaultMenu is the catalog a new deployment starts with.
var DefaultMenu = []models.MenuItem{
	{Title: "Veggie", Description: "A garden of delight", Image: "pizza1.png", Price: 0.0038},
	{Title: "Pepperoni", Description: "Spicy treat", Image: "pizza2.png", Price: 0.0042},
	{Title: "Margarita", Description: "Essential classic", Image: "pizza3.png", Price: 0.0042},
	{Title: "Crusty", Description: "A dry mouthed favorite", Image: "pizza4.png", Price: 0.0028},
	{Title: "Charred Leopard", Description: "For those with a darker side", Image: "pizza5.png", Price: 0.0099},
}

// Admin creates the admin account unless the email is already taken.
// Empty email or password skips the step.
func Admin(ctx context.Context, users *store.Users, passwords *auth.Passwords, name, email, password string, logger *slog.Logger) error {
	if email == "" || password == "" {
		logger.Info("bootstrap admin not configured")
		return nil
	}
	hash, err := passwords.Hash(ctx, password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        []models.Role{models.AdminRole()},
	}
	err = users.InsertUser(ctx, admin)
	if errors.Is(err, apperr.Conflict) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("bootstrap admin created", slog.Uint64("user_id", uint64(admin.ID)))
	return nil
}

// Menu inserts DefaultMenu into an empty catalog.
func Menu(ctx context.Context, menu *store.Menu, logger *slog.Logger) error {
	n, err := menu.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	items := make([]models.MenuItem, len(DefaultMenu))
	copy(items, DefaultMenu)
	if err := menu.Add(ctx, items); err != nil {
		return err
	}
	logger.Info("default menu seeded", slog.Int("items", len(items)))
	return nil
}
