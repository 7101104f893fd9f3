package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review is a participant's rating of a trip. A user reviews a trip at most once.
type Review struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateRating rejects ratings outside 1..5.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return wrapValidation("rating must be between 1 and 5")
	}
	return nil
}
