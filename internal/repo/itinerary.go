package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// ItineraryRepo defines the persistence operations for itinerary items.
// Single-item operations are scoped by tripID to enforce ownership.
type ItineraryRepo interface {
	// Create inserts a new item and returns the persisted record.
	Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)

	// GetByID returns domain.ErrNotFound if no item with that ID exists under that trip.
	GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error)

	// ListByTrip returns a trip's items ordered by date, then time.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error)

	// Update overwrites the mutable fields of an item, scoped to item.TripID.
	Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)

	// Delete removes one item, scoped to the given tripID.
	Delete(ctx context.Context, tripID, itemID uuid.UUID) error

	// DeleteByTrip removes all items of a trip.
	DeleteByTrip(ctx context.Context, tripID uuid.UUID) error
}

type pgItineraryRepo struct {
	db db
}

// NewItineraryRepo constructs an ItineraryRepo backed by the provided db connection.
func NewItineraryRepo(db db) ItineraryRepo {
	return &pgItineraryRepo{db: db}
}

// time is stored as TIME and exchanged as "HH:MM" text.
const itineraryColumns = `id, trip_id, title, date, to_char(time, 'HH24:MI'), location, notes`

func (r *pgItineraryRepo) Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	const q = `
		INSERT INTO itinerary_items (trip_id, title, date, time, location, notes)
		VALUES (@trip_id, @title, @date, @time::text::time, @location, @notes)
		RETURNING ` + itineraryColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id":  item.TripID,
		"title":    item.Title,
		"date":     item.Date,
		"time":     item.Time, // nil becomes NULL
		"location": item.Location,
		"notes":    item.Notes,
	})
	result, err := scanItineraryItem(row)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgItineraryRepo) GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error) {
	const q = `
		SELECT ` + itineraryColumns + `
		FROM itinerary_items
		WHERE id = @id AND trip_id = @trip_id`

	result, err := scanItineraryItem(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": itemID, "trip_id": tripID}))
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgItineraryRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error) {
	const q = `
		SELECT ` + itineraryColumns + `
		FROM itinerary_items
		WHERE trip_id = @trip_id
		ORDER BY date, time NULLS FIRST, title`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	items := []domain.ItineraryItem{}
	for rows.Next() {
		item, err := scanItineraryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: rows: %w", err)
	}
	return items, nil
}

func (r *pgItineraryRepo) Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	const q = `
		UPDATE itinerary_items
		SET title    = @title,
		    date     = @date,
		    time     = @time::text::time,
		    location = @location,
		    notes    = @notes
		WHERE id = @id AND trip_id = @trip_id
		RETURNING ` + itineraryColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":       item.ID,
		"trip_id":  item.TripID,
		"title":    item.Title,
		"date":     item.Date,
		"time":     item.Time,
		"location": item.Location,
		"notes":    item.Notes,
	})
	result, err := scanItineraryItem(row)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgItineraryRepo) Delete(ctx context.Context, tripID, itemID uuid.UUID) error {
	const q = `DELETE FROM itinerary_items WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": itemID, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgItineraryRepo) DeleteByTrip(ctx context.Context, tripID uuid.UUID) error {
	const q = `DELETE FROM itinerary_items WHERE trip_id = @trip_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return fmt.Errorf("repo.ItineraryRepo.DeleteByTrip: %w", err)
	}
	return nil
}

func scanItineraryItem(s scanner) (domain.ItineraryItem, error) {
	var (
		item       domain.ItineraryItem
		id, tripID pgtype.UUID
		date       pgtype.Date
	)
	if err := s.Scan(&id, &tripID, &item.Title, &date, &item.Time, &item.Location, &item.Notes); err != nil {
		return domain.ItineraryItem{}, notFound(err)
	}
	item.ID = uuid.UUID(id.Bytes)
	item.TripID = uuid.UUID(tripID.Bytes)
	item.Date = date.Time
	return item, nil
}
