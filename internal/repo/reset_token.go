package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// ResetTokenRepo defines the persistence operations for password-reset tokens.
type ResetTokenRepo interface {
	// Create stores t. Returns domain.ErrConflict if the token string is taken.
	Create(ctx context.Context, t domain.PasswordResetToken) (domain.PasswordResetToken, error)

	// GetByTokenForUpdate loads and row-locks a token so that two concurrent
	// redemptions serialize. Returns domain.ErrNotFound for unknown tokens.
	GetByTokenForUpdate(ctx context.Context, token string) (domain.PasswordResetToken, error)

	// MarkUsed flags the token as used. It never unsets the flag.
	MarkUsed(ctx context.Context, id uuid.UUID) error
}

type pgResetTokenRepo struct {
	db db
}

// NewResetTokenRepo constructs a ResetTokenRepo backed by the provided db connection.
func NewResetTokenRepo(db db) ResetTokenRepo {
	return &pgResetTokenRepo{db: db}
}

const resetTokenColumns = `id, token, user_id, created_at, expires_at, used`

func (r *pgResetTokenRepo) Create(ctx context.Context, t domain.PasswordResetToken) (domain.PasswordResetToken, error) {
	const q = `
		INSERT INTO password_reset_tokens (token, user_id, created_at, expires_at)
		VALUES (@token, @user_id, @created_at, @expires_at)
		RETURNING ` + resetTokenColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"token":      t.Token,
		"user_id":    t.UserID,
		"created_at": t.CreatedAt,
		"expires_at": t.ExpiresAt,
	})
	result, err := scanResetToken(row)
	if err != nil {
		return domain.PasswordResetToken{}, fmt.Errorf("repo.ResetTokenRepo.Create: %w", conflict(err))
	}
	return result, nil
}

func (r *pgResetTokenRepo) GetByTokenForUpdate(ctx context.Context, token string) (domain.PasswordResetToken, error) {
	const q = `
		SELECT ` + resetTokenColumns + `
		FROM password_reset_tokens
		WHERE token = @token
		FOR UPDATE`

	result, err := scanResetToken(r.db.QueryRow(ctx, q, pgx.NamedArgs{"token": token}))
	if err != nil {
		return domain.PasswordResetToken{}, fmt.Errorf("repo.ResetTokenRepo.GetByTokenForUpdate: %w", err)
	}
	return result, nil
}

func (r *pgResetTokenRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE password_reset_tokens SET used = true WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ResetTokenRepo.MarkUsed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ResetTokenRepo.MarkUsed: %w", domain.ErrNotFound)
	}
	return nil
}

func scanResetToken(s scanner) (domain.PasswordResetToken, error) {
	var (
		t          domain.PasswordResetToken
		id, userID pgtype.UUID
	)
	if err := s.Scan(&id, &t.Token, &userID, &t.CreatedAt, &t.ExpiresAt, &t.Used); err != nil {
		return domain.PasswordResetToken{}, notFound(err)
	}
	t.ID = uuid.UUID(id.Bytes)
	t.UserID = uuid.UUID(userID.Bytes)
	return t, nil
}
