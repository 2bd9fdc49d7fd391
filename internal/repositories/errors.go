package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrMerchantNotFound    = errors.New("merchant not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUserNotFound        = errors.New("user not found")

	// ErrTenantRequired is returned by any scoped query called without a
	// tenant. Storage refuses to run unscoped reads or writes.
	ErrTenantRequired = errors.New("tenant id is required")

	ErrDuplicateKey = errors.New("duplicate key value")
)

// pgUniqueViolation is the Postgres error code for unique-constraint
// violations.
const pgUniqueViolation = "23505"

// IsDuplicateKey reports whether err is a unique-constraint violation,
// either translated by gorm or surfaced raw from the pgx driver.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicateKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func requireTenant(tenantID uint) error {
	if tenantID == 0 {
		return ErrTenantRequired
	}
	return nil
}
