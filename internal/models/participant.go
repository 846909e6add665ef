package models

import "time"

// Participant is one person attached to exactly one session: either a
// registered user (UserID set) or a guest (GuestName set), never both.
type Participant struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	UserID    *int64    `json:"user_id"`
	GuestName *string   `json:"guest_name"`
	JoinedAt  time.Time `json:"joined_at"`

	// DisplayName is resolved on read: the user's name when UserID is set,
	// otherwise GuestName.
	DisplayName string `json:"display_name"`
}
