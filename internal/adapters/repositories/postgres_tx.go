package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// dbtx is the query surface shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// PostgresTransactor implements ports.Transactor with database/sql transactions.
type PostgresTransactor struct{ DB *sql.DB }

func NewPostgresTransactor(db *sql.DB) *PostgresTransactor {
	return &PostgresTransactor{DB: db}
}

// WithinTx runs fn in a READ COMMITTED transaction. Nested calls join the outer one.
func (t *PostgresTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.DB == nil {
		return errors.New("postgres transactor: DB is nil")
	}
	if inTx(ctx) {
		return fn(ctx)
	}

	tx, err := t.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("within tx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("within tx: commit: %w", err)
	}
	return nil
}
