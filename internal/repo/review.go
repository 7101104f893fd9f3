package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// ReviewRepo defines the persistence operations for trip reviews.
type ReviewRepo interface {
	// Create returns domain.ErrConflict if the user already reviewed the trip.
	Create(ctx context.Context, rv domain.Review) (domain.Review, error)

	// ListByTrip returns a trip's reviews, newest first.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Review, error)

	DeleteByTrip(ctx context.Context, tripID uuid.UUID) error
}

type pgReviewRepo struct {
	db db
}

// NewReviewRepo constructs a ReviewRepo backed by the provided db connection.
func NewReviewRepo(db db) ReviewRepo {
	return &pgReviewRepo{db: db}
}

const reviewColumns = `id, trip_id, user_id, rating, comment, created_at`

func (r *pgReviewRepo) Create(ctx context.Context, rv domain.Review) (domain.Review, error) {
	const q = `
		INSERT INTO trip_reviews (trip_id, user_id, rating, comment)
		VALUES (@trip_id, @user_id, @rating, @comment)
		RETURNING ` + reviewColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id": rv.TripID,
		"user_id": rv.UserID,
		"rating":  rv.Rating,
		"comment": rv.Comment,
	})
	result, err := scanReview(row)
	if err != nil {
		return domain.Review{}, fmt.Errorf("repo.ReviewRepo.Create: %w", conflict(err))
	}
	return result, nil
}

func (r *pgReviewRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Review, error) {
	const q = `
		SELECT ` + reviewColumns + `
		FROM trip_reviews
		WHERE trip_id = @trip_id
		ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReviewRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ReviewRepo.ListByTrip: scan: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReviewRepo.ListByTrip: rows: %w", err)
	}
	return out, nil
}

func (r *pgReviewRepo) DeleteByTrip(ctx context.Context, tripID uuid.UUID) error {
	const q = `DELETE FROM trip_reviews WHERE trip_id = @trip_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return fmt.Errorf("repo.ReviewRepo.DeleteByTrip: %w", err)
	}
	return nil
}

func scanReview(s scanner) (domain.Review, error) {
	var (
		rv                 domain.Review
		id, tripID, userID pgtype.UUID
		rating             int16
	)
	if err := s.Scan(&id, &tripID, &userID, &rating, &rv.Comment, &rv.CreatedAt); err != nil {
		return domain.Review{}, notFound(err)
	}
	rv.ID = uuid.UUID(id.Bytes)
	rv.TripID = uuid.UUID(tripID.Bytes)
	rv.UserID = uuid.UUID(userID.Bytes)
	rv.Rating = int(rating)
	return rv, nil
}
