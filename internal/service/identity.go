package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

const minPasswordLen = 8

// IdentityService registers users, checks credentials and issues the
// bearer tokens the HTTP layer uses to identify the acting user.
type IdentityService struct {
	tx     Transactor
	log    *slog.Logger
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIdentityService constructs an IdentityService. secret signs HS256 tokens
// that expire after ttl.
func NewIdentityService(tx Transactor, log *slog.Logger, secret string, ttl time.Duration) *IdentityService {
	return &IdentityService{
		tx:     tx,
		log:    log.With("service", "IdentityService"),
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Register creates an account. Returns domain.ErrConflict when the email or
// username is taken.
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return domain.User{}, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	var user domain.User
	err = s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		user, err = r.Users.Create(ctx, domain.User{Username: username, Email: email, PasswordHash: hash})
		return err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.IdentityService.Register: %w", err)
	}
	return user, nil
}

// Authenticate returns the user for a matching email and password and
// domain.ErrUnauthorized otherwise. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	var user domain.User
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		user, err = r.Users.GetByEmail(ctx, strings.TrimSpace(email))
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("service.IdentityService.Authenticate: %w", err)
	}
	if err := checkPassword(user.PasswordHash, password); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Me returns the user behind a session.
func (s *IdentityService) Me(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	var user domain.User
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		user, err = r.Users.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.IdentityService.Me: %w", err)
	}
	return user, nil
}

// IssueToken signs a session token whose subject is the user ID.
func (s *IdentityService) IssueToken(user domain.User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("service.IdentityService.IssueToken: %w", err)
	}
	return token, nil
}

// ParseToken validates a session token and returns the acting user ID.
// Any defect (signature, algorithm, expiry, subject) yields domain.ErrUnauthorized.
func (s *IdentityService) ParseToken(token string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, domain.ErrUnauthorized
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return domain.ErrUnauthorized
	}
	return nil
}
