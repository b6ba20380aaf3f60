package events

import "time"

// Event types published to the user-events queue.
const (
	UserRegistered = "user.registered"
	UserDeleted    = "user.deleted"
)

// UserEvent is the message shape for user lifecycle notifications. It
// carries only public identity fields, never credentials.
type UserEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     int64     `json:"userId"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}
