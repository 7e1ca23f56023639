package database

import (
	"context"
	"database/sql"
)

// WithTx runs fn inside a transaction.  The transaction is rolled back
// when fn returns an error or panics, otherwise committed.  The error
// returned by fn propagates untouched so callers can match sentinel
// errors from inside the transaction.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	done = true
	return nil
}
