package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// FavoriteRepo defines the persistence operations for the favorite-destination
// catalog and the user_favorite_destinations relation.
type FavoriteRepo interface {
	// FindOrCreate returns the catalog entry whose name matches nf.Name
	// case-insensitively, inserting it first if none exists. The optional
	// fields of nf are only used on insert.
	FindOrCreate(ctx context.Context, nf domain.NewFavorite) (domain.FavoriteDestination, error)

	// GetByName returns domain.ErrNotFound if no entry matches name case-insensitively.
	GetByName(ctx context.Context, name string) (domain.FavoriteDestination, error)

	// AddUser links userID to destID. added is false if the link already existed.
	AddUser(ctx context.Context, userID, destID uuid.UUID) (added bool, err error)

	// RemoveUser unlinks userID from destID.
	// Returns domain.ErrNotFound if the link did not exist.
	RemoveUser(ctx context.Context, userID, destID uuid.UUID) error

	// IsFavorited reports whether userID favorited the entry named name.
	IsFavorited(ctx context.Context, userID uuid.UUID, name string) (bool, error)

	// ListByUser returns the user's favorites, most recently favorited first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.FavoriteDestination, error)

	// Popular ranks entries by favorite count, ties in insertion order.
	Popular(ctx context.Context, limit int) ([]domain.PopularDestination, error)

	// Search matches query as a case-insensitive substring of name or country.
	Search(ctx context.Context, query string) ([]domain.FavoriteDestination, error)
}

type pgFavoriteRepo struct {
	db db
}

// NewFavoriteRepo constructs a FavoriteRepo backed by the provided db connection.
func NewFavoriteRepo(db db) FavoriteRepo {
	return &pgFavoriteRepo{db: db}
}

const favoriteColumns = `d.id, d.name, d.country, d.description, d.image_url, d.created_at`

func (r *pgFavoriteRepo) FindOrCreate(ctx context.Context, nf domain.NewFavorite) (domain.FavoriteDestination, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	const q = `
		INSERT INTO favorite_destinations AS d (name, country, description, image_url)
		VALUES (@name, @country, @description, @image_url)
		ON CONFLICT ((lower(name))) DO UPDATE SET name = d.name
		RETURNING ` + favoriteColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"name":        strings.TrimSpace(nf.Name),
		"country":     nf.Country,
		"description": nf.Description,
		"image_url":   nf.ImageURL,
	})
	result, err := scanFavorite(row)
	if err != nil {
		return domain.FavoriteDestination{}, fmt.Errorf("repo.FavoriteRepo.FindOrCreate: %w", err)
	}
	return result, nil
}

func (r *pgFavoriteRepo) GetByName(ctx context.Context, name string) (domain.FavoriteDestination, error) {
	const q = `
		SELECT ` + favoriteColumns + `
		FROM favorite_destinations d
		WHERE lower(d.name) = @key`

	result, err := scanFavorite(r.db.QueryRow(ctx, q, pgx.NamedArgs{"key": domain.FavoriteKey(name)}))
	if err != nil {
		return domain.FavoriteDestination{}, fmt.Errorf("repo.FavoriteRepo.GetByName: %w", err)
	}
	return result, nil
}

func (r *pgFavoriteRepo) AddUser(ctx context.Context, userID, destID uuid.UUID) (bool, error) {
	const q = `
		INSERT INTO user_favorite_destinations (user_id, destination_id)
		VALUES (@user_id, @destination_id)
		ON CONFLICT DO NOTHING`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID, "destination_id": destID})
	if err != nil {
		return false, fmt.Errorf("repo.FavoriteRepo.AddUser: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgFavoriteRepo) RemoveUser(ctx context.Context, userID, destID uuid.UUID) error {
	const q = `
		DELETE FROM user_favorite_destinations
		WHERE user_id = @user_id AND destination_id = @destination_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID, "destination_id": destID})
	if err != nil {
		return fmt.Errorf("repo.FavoriteRepo.RemoveUser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.FavoriteRepo.RemoveUser: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgFavoriteRepo) IsFavorited(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM user_favorite_destinations uf
			JOIN favorite_destinations d ON d.id = uf.destination_id
			WHERE uf.user_id = @user_id AND lower(d.name) = @key
		)`

	var ok bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "key": domain.FavoriteKey(name)}).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("repo.FavoriteRepo.IsFavorited: %w", err)
	}
	return ok, nil
}

func (r *pgFavoriteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.FavoriteDestination, error) {
	const q = `
		SELECT ` + favoriteColumns + `
		FROM favorite_destinations d
		JOIN user_favorite_destinations uf ON uf.destination_id = d.id
		WHERE uf.user_id = @user_id
		ORDER BY uf.created_at DESC, d.position`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.FavoriteRepo.ListByUser: %w", err)
	}
	return collectFavorites(rows, "repo.FavoriteRepo.ListByUser")
}

func (r *pgFavoriteRepo) Popular(ctx context.Context, limit int) ([]domain.PopularDestination, error) {
	const q = `
		SELECT ` + favoriteColumns + `, count(uf.user_id) AS favorites
		FROM favorite_destinations d
		LEFT JOIN user_favorite_destinations uf ON uf.destination_id = d.id
		GROUP BY d.id
		ORDER BY favorites DESC, d.position
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.FavoriteRepo.Popular: %w", err)
	}
	defer rows.Close()

	out := []domain.PopularDestination{}
	for rows.Next() {
		var (
			p  domain.PopularDestination
			id pgtype.UUID
		)
		err := rows.Scan(&id, &p.Name, &p.Country, &p.Description, &p.ImageURL, &p.CreatedAt, &p.Favorites)
		if err != nil {
			return nil, fmt.Errorf("repo.FavoriteRepo.Popular: scan: %w", err)
		}
		p.ID = uuid.UUID(id.Bytes)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.FavoriteRepo.Popular: rows: %w", err)
	}
	return out, nil
}

func (r *pgFavoriteRepo) Search(ctx context.Context, query string) ([]domain.FavoriteDestination, error) {
	const q = `
		SELECT ` + favoriteColumns + `
		FROM favorite_destinations d
		WHERE d.name ILIKE @pattern ESCAPE '\' OR d.country ILIKE @pattern ESCAPE '\'
		ORDER BY d.position`

	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"pattern": pattern})
	if err != nil {
		return nil, fmt.Errorf("repo.FavoriteRepo.Search: %w", err)
	}
	return collectFavorites(rows, "repo.FavoriteRepo.Search")
}

// escapeLike makes query match literally inside a LIKE pattern.
func escapeLike(query string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
}

func collectFavorites(rows pgx.Rows, op string) ([]domain.FavoriteDestination, error) {
	defer rows.Close()

	out := []domain.FavoriteDestination{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

func scanFavorite(s scanner) (domain.FavoriteDestination, error) {
	var (
		f  domain.FavoriteDestination
		id pgtype.UUID
	)
	if err := s.Scan(&id, &f.Name, &f.Country, &f.Description, &f.ImageURL, &f.CreatedAt); err != nil {
		return domain.FavoriteDestination{}, notFound(err)
	}
	f.ID = uuid.UUID(id.Bytes)
	return f, nil
}
