package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a fake.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// LockByID is GetByID with a row lock held until the transaction ends.
	// Membership changes take this lock so that "last participant leaves"
	// is decided against a stable participant count.
	LockByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListByParticipant returns one page of the trips userID participates in,
	// ordered by start_date descending, and the total number of such trips.
	ListByParticipant(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// ListIDsByParticipant returns the IDs of every trip userID participates in.
	ListIDsByParticipant(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Update overwrites the mutable fields of an existing trip and returns the
	// updated record. Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass a pgx.Tx from Store.InTx; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, title, start_date, end_date, description, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (title, start_date, end_date, description)
		VALUES (@title, @start_date, @end_date, @description)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"title":       trip.Title,
		"start_date":  trip.StartDate,
		"end_date":    trip.EndDate,
		"description": trip.Description,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// LockByID retrieves a trip and locks its row FOR UPDATE.
func (r *pgTripRepo) LockByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id FOR UPDATE`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.LockByID: %w", err)
	}
	return result, nil
}

// ListByParticipant pages through a user's trips, most recent first.
func (r *pgTripRepo) ListByParticipant(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const q = `
		SELECT t.id, t.title, t.start_date, t.end_date, t.description, t.created_at, t.updated_at,
		       count(*) OVER () AS total
		FROM trips t
		JOIN trip_participants tp ON tp.trip_id = t.id
		WHERE tp.user_id = @user_id
		ORDER BY t.start_date DESC, t.created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"user_id": userID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByParticipant: %w", err)
	}
	defer rows.Close()

	var (
		trips = []domain.Trip{}
		total int64
	)
	for rows.Next() {
		var (
			t        domain.Trip
			id       pgtype.UUID
			sd, ed   pgtype.Date
			rowTotal int64
		)
		if err := rows.Scan(&id, &t.Title, &sd, &ed, &t.Description, &t.CreatedAt, &t.UpdatedAt, &rowTotal); err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListByParticipant: scan: %w", err)
		}
		t.ID = uuid.UUID(id.Bytes)
		t.StartDate = sd.Time
		t.EndDate = ed.Time
		total = rowTotal
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByParticipant: rows: %w", err)
	}
	return trips, total, nil
}

// ListIDsByParticipant returns every trip ID userID participates in.
func (r *pgTripRepo) ListIDsByParticipant(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT trip_id FROM trip_participants WHERE user_id = @user_id ORDER BY joined_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListIDsByParticipant: %w", err)
	}
	ids, err := collectUUIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListIDsByParticipant: %w", err)
	}
	return ids, nil
}

// Update overwrites the mutable fields of a trip and returns the updated record.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET title       = @title,
		    start_date  = @start_date,
		    end_date    = @end_date,
		    description = @description,
		    updated_at  = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":          trip.ID,
		"title":       trip.Title,
		"start_date":  trip.StartDate,
		"end_date":    trip.EndDate,
		"description": trip.Description,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID and date conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t      domain.Trip
		id     pgtype.UUID
		sd, ed pgtype.Date
	)

	if err := s.Scan(&id, &t.Title, &sd, &ed, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Trip{}, notFound(err)
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = sd.Time
	t.EndDate = ed.Time
	return t, nil
}

// collectUUIDs drains rows that select a single uuid column.
func collectUUIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return ids, nil
}
