package domain

import "time"

// User represents an authenticated identity in the platform. PasswordHash is
// never serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the subset of User the realtime layer binds to a connection.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Identity returns the realtime-facing view of the user.
func (u *User) Identity() Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{UserID: u.ID, Name: u.Name}
}
