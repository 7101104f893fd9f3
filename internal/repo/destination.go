package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// DestinationRepo defines the persistence operations for a trip's destinations.
type DestinationRepo interface {
	// Add appends one destination to a trip.
	Add(ctx context.Context, tripID uuid.UUID, name string) (domain.TripDestination, error)

	// ListByTrip returns a trip's destinations in insertion order.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripDestination, error)

	// SetFavorited flags a destination, scoped to the given tripID.
	// Returns domain.ErrNotFound if the destination does not belong to the trip.
	SetFavorited(ctx context.Context, tripID, destinationID uuid.UUID, favorited bool) (domain.TripDestination, error)

	// DeleteByTrip removes all destinations of a trip.
	DeleteByTrip(ctx context.Context, tripID uuid.UUID) error
}

type pgDestinationRepo struct {
	db db
}

// NewDestinationRepo constructs a DestinationRepo backed by the provided db connection.
func NewDestinationRepo(db db) DestinationRepo {
	return &pgDestinationRepo{db: db}
}

func (r *pgDestinationRepo) Add(ctx context.Context, tripID uuid.UUID, name string) (domain.TripDestination, error) {
	const q = `
		INSERT INTO trip_destinations (trip_id, name)
		VALUES (@trip_id, @name)
		RETURNING id, trip_id, name, is_favorited`

	result, err := scanDestination(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "name": name}))
	if err != nil {
		return domain.TripDestination{}, fmt.Errorf("repo.DestinationRepo.Add: %w", err)
	}
	return result, nil
}

func (r *pgDestinationRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripDestination, error) {
	const q = `
		SELECT id, trip_id, name, is_favorited
		FROM trip_destinations
		WHERE trip_id = @trip_id
		ORDER BY position`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.DestinationRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	out := []domain.TripDestination{}
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DestinationRepo.ListByTrip: scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DestinationRepo.ListByTrip: rows: %w", err)
	}
	return out, nil
}

func (r *pgDestinationRepo) SetFavorited(ctx context.Context, tripID, destinationID uuid.UUID, favorited bool) (domain.TripDestination, error) {
	const q = `
		UPDATE trip_destinations
		SET is_favorited = @favorited
		WHERE id = @id AND trip_id = @trip_id
		RETURNING id, trip_id, name, is_favorited`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": destinationID, "trip_id": tripID, "favorited": favorited})
	result, err := scanDestination(row)
	if err != nil {
		return domain.TripDestination{}, fmt.Errorf("repo.DestinationRepo.SetFavorited: %w", err)
	}
	return result, nil
}

func (r *pgDestinationRepo) DeleteByTrip(ctx context.Context, tripID uuid.UUID) error {
	const q = `DELETE FROM trip_destinations WHERE trip_id = @trip_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return fmt.Errorf("repo.DestinationRepo.DeleteByTrip: %w", err)
	}
	return nil
}

func scanDestination(s scanner) (domain.TripDestination, error) {
	var (
		d          domain.TripDestination
		id, tripID pgtype.UUID
	)
	if err := s.Scan(&id, &tripID, &d.Name, &d.IsFavorited); err != nil {
		return domain.TripDestination{}, notFound(err)
	}
	d.ID = uuid.UUID(id.Bytes)
	d.TripID = uuid.UUID(tripID.Bytes)
	return d, nil
}
