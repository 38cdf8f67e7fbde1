package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier is satisfied by both *sql.DB and *sql.Tx.
//
// Repositories depend on it instead of *sql.DB, so the same repository can
// run against the pool or inside a transaction:
//
//	err := database.WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
//	    users := repository.NewSQLiteUserRepo(tx)
//	    servers := repository.NewSQLiteServerRepo(tx)
//	    ...
//	})
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction.
//
// fn returns nil: COMMIT. fn returns an error: ROLLBACK and the error is
// returned. fn panics: ROLLBACK, then the panic is re-raised so the
// transaction never stays open holding the write lock.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
