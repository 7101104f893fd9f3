// Package repo contains all database access logic for the JetSetGo API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scanX helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Repos bundles every repository bound to the same connection or transaction.
// Services receive a Repos inside Store.InTx so that all reads and writes of
// one operation share a single transaction.
type Repos struct {
	Users         UserRepo
	Trips         TripRepo
	Participants  ParticipantRepo
	Destinations  DestinationRepo
	Itinerary     ItineraryRepo
	Budgets       BudgetRepo
	Planned       PlannedBudgetRepo
	Expenses      ExpenseRepo
	Favorites     FavoriteRepo
	ResetTokens   ResetTokenRepo
	Notifications NotificationRepo
	Reviews       ReviewRepo
	Tasks         TaskRepo
}

// NewRepos builds every repository on top of db.
func NewRepos(db db) Repos {
	return Repos{
		Users:         NewUserRepo(db),
		Trips:         NewTripRepo(db),
		Participants:  NewParticipantRepo(db),
		Destinations:  NewDestinationRepo(db),
		Itinerary:     NewItineraryRepo(db),
		Budgets:       NewBudgetRepo(db),
		Planned:       NewPlannedBudgetRepo(db),
		Expenses:      NewExpenseRepo(db),
		Favorites:     NewFavoriteRepo(db),
		ResetTokens:   NewResetTokenRepo(db),
		Notifications: NewNotificationRepo(db),
		Reviews:       NewReviewRepo(db),
		Tasks:         NewTaskRepo(db),
	}
}

// notFound maps pgx.ErrNoRows to domain.ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// conflict maps unique violations to domain.ErrConflict.
func conflict(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

// toUUIDs converts a scanned uuid[] column into domain IDs.
// It always returns a non-nil slice.
func toUUIDs(in []pgtype.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	for _, id := range in {
		if id.Valid {
			out = append(out, uuid.UUID(id.Bytes))
		}
	}
	return out
}

// fromUUIDs converts domain IDs into a value pgx can encode as uuid[].
func fromUUIDs(in []uuid.UUID) []pgtype.UUID {
	out := make([]pgtype.UUID, 0, len(in))
	for _, id := range in {
		out = append(out, pgtype.UUID{Bytes: id, Valid: true})
	}
	return out
}

// parseDecimal converts a numeric column selected as ::text.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
