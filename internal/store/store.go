// Package store is the persistence layer. Queries are written with '?'
// placeholders and rebound for the active driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/db"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by Find* methods when no row matches.
var ErrNotFound = errors.New("store: not found")

const DefaultTimeout = 5 * time.Second

type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Queries holds the per-entity statements. It runs either directly on the
// pool or inside a transaction started by Store.InTx.
type Queries struct {
	q          querier
	lockSuffix string
	timeout    time.Duration
}

type Store struct {
	*Queries
	db *sqlx.DB
}

func New(conn *sqlx.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lock := " FOR UPDATE"
	if db.IsSQLite(conn) {
		// sqlite transactions are opened with BEGIN IMMEDIATE and hold the
		// write lock already
		lock = ""
	}
	return &Store{
		Queries: &Queries{q: conn, lockSuffix: lock, timeout: timeout},
		db:      conn,
	}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

// InTx runs fn in a transaction bounded by the store timeout. The
// transaction is rolled back when fn returns an error or panics.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Translate(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Queries{q: tx, lockSuffix: s.lockSuffix, timeout: s.timeout}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return Translate(err, "commit transaction")
	}
	return nil
}

func (q *Queries) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, q.timeout)
}

func (q *Queries) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := q.bound(ctx)
	defer cancel()
	err := q.q.GetContext(ctx, dest, q.q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (q *Queries) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := q.bound(ctx)
	defer cancel()
	return q.q.SelectContext(ctx, dest, q.q.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	ctx, cancel := q.bound(ctx)
	defer cancel()
	res, err := q.q.ExecContext(ctx, q.q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Translate turns a driver failure into an apperr.Error. Contention and
// timeouts become retryable; domain errors pass through unchanged.
func Translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || IsBusy(err) {
		return apperr.Unavailable(msg, err)
	}
	return apperr.Internal(msg, err)
}

// Timestamps are kept in UTC at microsecond precision so both drivers
// round-trip them unchanged.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func normalizePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := normalize(*t)
	return &v
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
