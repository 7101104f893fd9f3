package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// UserRepo defines the persistence operations for Users.
type UserRepo interface {
	// Create inserts a user. Returns domain.ErrConflict when the email
	// (case-insensitive) or username is already taken.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID returns domain.ErrNotFound if no user has that ID.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetByEmail looks a user up by email, case-insensitively.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// GetByUsername looks a user up by exact username.
	GetByUsername(ctx context.Context, username string) (domain.User, error)

	// ListByIDs returns the users with the given IDs ordered by username.
	// Unknown IDs are skipped.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)

	// ListByUsernames returns the users with the given usernames ordered by
	// username. Unknown usernames are skipped.
	ListByUsernames(ctx context.Context, usernames []string) ([]domain.User, error)

	// UpdatePasswordHash replaces the stored credential.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, username, email, password_hash, created_at`

func (r *pgUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (username, email, password_hash)
		VALUES (@username, @email, @password_hash)
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
	})
	result, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", conflict(err))
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower(@email)`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = @username`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"username": username}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByUsername: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ANY(@ids)
		ORDER BY username`

	users, err := r.list(ctx, q, pgx.NamedArgs{"ids": fromUUIDs(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.UserRepo.ListByIDs: %w", err)
	}
	return users, nil
}

func (r *pgUserRepo) ListByUsernames(ctx context.Context, usernames []string) ([]domain.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = ANY(@usernames)
		ORDER BY username`

	users, err := r.list(ctx, q, pgx.NamedArgs{"usernames": usernames})
	if err != nil {
		return nil, fmt.Errorf("repo.UserRepo.ListByUsernames: %w", err)
	}
	return users, nil
}

func (r *pgUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	const q = `UPDATE users SET password_hash = @hash WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "hash": hash})
	if err != nil {
		return fmt.Errorf("repo.UserRepo.UpdatePasswordHash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.UserRepo.UpdatePasswordHash: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgUserRepo) list(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return users, nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u  domain.User
		id pgtype.UUID
	)
	if err := s.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return domain.User{}, notFound(err)
	}
	u.ID = uuid.UUID(id.Bytes)
	return u, nil
}
