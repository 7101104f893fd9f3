package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// beginner is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx. Starting a
// transaction on a pgx.Tx creates a savepoint, which lets integration tests
// drive a Store inside a transaction that is rolled back afterwards.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store runs units of work inside a single database transaction.
type Store struct {
	conn       beginner
	maxRetries uint64
	baseDelay  time.Duration
}

// NewStore constructs a Store. In production pass *pgxpool.Pool.
func NewStore(conn beginner) *Store {
	return &Store{conn: conn, maxRetries: 3, baseDelay: 20 * time.Millisecond}
}

// InTx runs fn inside a transaction and commits when fn returns nil.
// Any error from fn rolls the whole transaction back, so no partial effect of
// an operation is ever visible.
//
// Serialization failures and deadlocks roll back the entire unit of work and
// run it again from the start. Because nothing from the failed attempt was
// committed, a retry never applies a mutation twice.
func (s *Store) InTx(ctx context.Context, fn func(r Repos) error) error {
	b := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.baseDelay))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
			return fn(NewRepos(tx))
		})
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	return err
}

// isTransient reports whether err is a serialization_failure (40001) or
// deadlock_detected (40P01) that is safe to retry as a whole transaction.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
