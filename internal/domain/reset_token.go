package domain

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is a single-use, time-limited credential bound to a user.
// Expired is not stored; it follows from ExpiresAt and the clock.
type PasswordResetToken struct {
	ID        uuid.UUID
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// IsValid reports whether the token can still be redeemed at now.
// Callers read the clock once and pass it in.
func (t PasswordResetToken) IsValid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
