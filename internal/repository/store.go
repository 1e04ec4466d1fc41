// Package repository implements the MySQL persistence layer. All state
// transitions run through *Store methods; multi-step operations are
// composed inside WithTx so the whole booking, sweep or fan-out appears
// atomic to concurrent callers.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Store gives the service layer access to seats and attendees backed by
// a single database handle. Methods observe a transaction carried in the
// context (see WithTx); outside a transaction they run as single
// auto-committed statements.
type Store struct {
	db *sql.DB
}

// New returns a Store bound to the given database.
func New(db *sql.DB) *Store { return &Store{db: db} }

type txKey struct{}

// WithTx runs fn inside a transaction carried via the context. Nested
// calls join the ongoing transaction instead of opening a second one, so
// services can compose claim and commit steps freely. On error the whole
// transaction rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

// placeholders returns "?, ?, ..." for n arguments of an IN clause.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}
