package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// ParticipantRepo defines the persistence operations for the trip_participants
// join table: the membership relation that grants access to a trip.
type ParticipantRepo interface {
	// Add links a user to a trip. Idempotent: returns false when the user was
	// already a participant.
	Add(ctx context.Context, tripID, userID uuid.UUID) (bool, error)

	// Remove unlinks a user from a trip.
	// Returns domain.ErrNotFound if the user is not a participant.
	Remove(ctx context.Context, tripID, userID uuid.UUID) error

	// Count returns the number of participants of a trip.
	Count(ctx context.Context, tripID uuid.UUID) (int, error)

	// IsParticipant reports whether userID participates in tripID.
	IsParticipant(ctx context.Context, tripID, userID uuid.UUID) (bool, error)

	// ListUserIDs returns participant IDs in the order they joined.
	ListUserIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)

	// DeleteByTrip removes every membership edge of a trip.
	DeleteByTrip(ctx context.Context, tripID uuid.UUID) error
}

type pgParticipantRepo struct {
	db db
}

// NewParticipantRepo constructs a ParticipantRepo backed by the provided db connection.
func NewParticipantRepo(db db) ParticipantRepo {
	return &pgParticipantRepo{db: db}
}

// Add links a user to a trip. Idempotent via ON CONFLICT DO NOTHING.
func (r *pgParticipantRepo) Add(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	const q = `
		INSERT INTO trip_participants (trip_id, user_id)
		VALUES (@trip_id, @user_id)
		ON CONFLICT (trip_id, user_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	if err != nil {
		return false, fmt.Errorf("repo.ParticipantRepo.Add: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgParticipantRepo) Remove(ctx context.Context, tripID, userID uuid.UUID) error {
	const q = `DELETE FROM trip_participants WHERE trip_id = @trip_id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.ParticipantRepo.Remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ParticipantRepo.Remove: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgParticipantRepo) Count(ctx context.Context, tripID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM trip_participants WHERE trip_id = @trip_id`

	var n int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.ParticipantRepo.Count: %w", err)
	}
	return n, nil
}

func (r *pgParticipantRepo) IsParticipant(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM trip_participants
			WHERE trip_id = @trip_id AND user_id = @user_id
		)`

	var ok bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}).Scan(&ok); err != nil {
		return false, fmt.Errorf("repo.ParticipantRepo.IsParticipant: %w", err)
	}
	return ok, nil
}

func (r *pgParticipantRepo) ListUserIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	const q = `
		SELECT user_id FROM trip_participants
		WHERE trip_id = @trip_id
		ORDER BY joined_at, user_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ParticipantRepo.ListUserIDs: %w", err)
	}
	ids, err := collectUUIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.ParticipantRepo.ListUserIDs: %w", err)
	}
	return ids, nil
}

func (r *pgParticipantRepo) DeleteByTrip(ctx context.Context, tripID uuid.UUID) error {
	const q = `DELETE FROM trip_participants WHERE trip_id = @trip_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return fmt.Errorf("repo.ParticipantRepo.DeleteByTrip: %w", err)
	}
	return nil
}
