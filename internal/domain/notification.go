package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind tells which aggregate a notification refers to.
type NotificationKind string

const (
	NotifyTripShare    NotificationKind = "trip_share"
	NotifyExpenseShare NotificationKind = "expense_share"
)

// NotificationStatus is the receiver's answer.
type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationAccepted NotificationStatus = "accepted"
	NotificationRejected NotificationStatus = "rejected"
)

// Notification is a share request from one user to another. SubjectID is the
// trip or the expense, depending on Kind.
type Notification struct {
	ID         uuid.UUID          `json:"id"`
	Kind       NotificationKind   `json:"kind"`
	SenderID   uuid.UUID          `json:"sender_id"`
	ReceiverID uuid.UUID          `json:"receiver_id"`
	SubjectID  uuid.UUID          `json:"subject_id"`
	Message    string             `json:"message"`
	Status     NotificationStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
}

// StatusFor maps an accept/reject answer to a notification status.
func StatusFor(accept bool) NotificationStatus {
	if accept {
		return NotificationAccepted
	}
	return NotificationRejected
}
