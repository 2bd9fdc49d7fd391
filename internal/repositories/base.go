package repositories

import (
	"context"

	"gorm.io/gorm"
)

type contextKey string

// txKey carries an open *gorm.DB transaction through a context so that
// every repository call inside a lifecycle operation joins the same
// storage transaction.
const txKey contextKey = "tx"

// TransactionManager runs a function inside a single storage transaction.
// The context passed to fn carries the transaction handle; repositories
// pick it up automatically, so a state change, its audit entry and any
// counter updates commit or roll back together.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type baseRepository struct {
	db *gorm.DB
}

// dbx returns the transaction carried by ctx when present, otherwise the
// base handle bound to ctx.
func (r *baseRepository) dbx(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *baseRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		// Already inside a transaction, join it.
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// NewTransactionManager returns the gorm-backed transaction manager shared
// by all lifecycle services.
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &baseRepository{db: db}
}
