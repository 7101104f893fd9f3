package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity record. Every other entity refers to users by ID and
// never owns them.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
