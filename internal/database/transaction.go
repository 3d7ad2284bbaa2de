package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction executes fn within a transaction, committing on success
// or rolling back on error or panic.
func WithTransaction(ctx context.Context, db Database, fn func(tx *gorm.DB) error) error {
	_, err := WithTransactionResult(ctx, db, func(tx *gorm.DB) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}

// WithTransactionResult executes fn within a transaction, returning its
// result on commit.
func WithTransactionResult[T any](ctx context.Context, db Database, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var (
		result T
		zero   T
	)

	tx := db.Session(ctx).Begin()
	if tx.Error != nil {
		return zero, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit().Error; err != nil {
		return zero, fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return result, nil
}
