package models

import "time"

// User represents a registered user account.
type User struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// DisplayName is shown for the user wherever they participate.
	DisplayName string `json:"display_name"`

	// Email is the user's login (unique).
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password. Never serialized.
	PasswordHash string `json:"-"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"created_at"`
}

// NewUser creates a new User with CreatedAt set to now.
func NewUser(email, displayName, passwordHash string) *User {
	return &User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}
