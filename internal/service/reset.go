package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

const resetTokenBytes = 32

// ResetService issues and redeems single-use password-reset tokens.
type ResetService struct {
	tx      Transactor
	mailer  Mailer
	log     *slog.Logger
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

// NewResetService constructs a ResetService whose tokens expire after ttl.
func NewResetService(tx Transactor, mailer Mailer, log *slog.Logger, ttl time.Duration, baseURL string) *ResetService {
	return &ResetService{
		tx:      tx,
		mailer:  mailer,
		log:     log.With("service", "ResetService"),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// GenerateToken creates a new token for userID valid for ttl, or for the
// service default when ttl is not positive. Older tokens stay valid.
func (s *ResetService) GenerateToken(ctx context.Context, userID uuid.UUID, ttl time.Duration) (domain.PasswordResetToken, error) {
	var t domain.PasswordResetToken
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := r.Users.GetByID(ctx, userID); err != nil {
			return err
		}
		var err error
		t, err = s.createToken(ctx, r, userID, ttl)
		return err
	})
	if err != nil {
		return domain.PasswordResetToken{}, fmt.Errorf("service.ResetService.GenerateToken: %w", err)
	}
	return t, nil
}

func (s *ResetService) createToken(ctx context.Context, r repo.Repos, userID uuid.UUID, ttl time.Duration) (domain.PasswordResetToken, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return domain.PasswordResetToken{}, fmt.Errorf("read random: %w", err)
	}
	now := s.now()
	return r.ResetTokens.Create(ctx, domain.PasswordResetToken{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
}

// RequestReset emails a reset link to the account registered under email.
// Unknown emails succeed silently so the endpoint does not reveal which
// accounts exist.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	var (
		user  domain.User
		token domain.PasswordResetToken
	)
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		if user, err = r.Users.GetByEmail(ctx, strings.TrimSpace(email)); err != nil {
			return err
		}
		token, err = s.createToken(ctx, r, user.ID, 0)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("service.ResetService.RequestReset: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token.Token)
	body := fmt.Sprintf("Hi %s,\n\nUse this link to choose a new password: %s\n\nThe link expires at %s.\n",
		user.Username, link, token.ExpiresAt.UTC().Format(time.RFC1123))
	if err := s.mailer.Send(ctx, user.Email, "Reset your JetSetGo password", body); err != nil {
		s.log.WarnContext(ctx, "reset email failed",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// ResetPassword replaces the password of the token's owner and marks the
// token used, both in one transaction. It returns domain.ErrInvalidToken for
// unknown, used or expired tokens and leaves all state untouched.
func (s *ResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	err = s.tx.InTx(ctx, func(r repo.Repos) error {
		t, err := r.ResetTokens.GetByTokenForUpdate(ctx, token)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if !t.IsValid(s.now()) {
			return domain.ErrInvalidToken
		}
		if err := r.Users.UpdatePasswordHash(ctx, t.UserID, hash); err != nil {
			return err
		}
		return r.ResetTokens.MarkUsed(ctx, t.ID)
	})
	if err != nil {
		return fmt.Errorf("service.ResetService.ResetPassword: %w", err)
	}
	return nil
}
