// pkg/db/transaction_manager.go
package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// TxController defines methods for controlling a database transaction.
// *sqlx.Tx implicitly implements this interface.
type TxController interface {
	Commit() error
	Rollback() error
}

// TxBeginner starts transactions. SQLXBeginner adapts *sqlx.DB; the memory store
// provides its own implementation.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (TxController, error)
}

// SQLXBeginner begins *sqlx.Tx transactions on a pooled connection.
type SQLXBeginner struct {
	DB *sqlx.DB
}

// BeginTx implements TxBeginner.
func (b SQLXBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (TxController, error) {
	tx, err := b.DB.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// BeginTx starts a new read-committed transaction. Row locks taken inside it
// (SELECT ... FOR UPDATE) serialize writers.
func BeginTx(ctx context.Context, b TxBeginner) (TxController, error) {
	return b.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// CommitTx commits the transaction.
func CommitTx(tx TxController) error {
	return tx.Commit()
}

// RollbackTx rolls back the transaction. Meant to be deferred: rolling back an
// already-committed transaction is not an error.
func RollbackTx(tx TxController) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		zap.L().Warn("Error rolling back transaction", zap.Error(err))
	}
}
