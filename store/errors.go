// Package store holds the gorm-backed repositories: the credential store
// (users and role assignments), franchises and stores, orders and the menu.
// Every method is a single atomic operation from the caller's perspective.
package store

import (
	"errors"

	"pizza-franchise-api/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// dbError classifies an unexpected persistence error. Deadlines become a
// retryable Unavailable; query detail never reaches the caller.
func dbError(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.FromContext(err, op)
}
