package user

import "time"

const (
	EventUserRegistered     = "UserRegistered"
	EventUserLoggedIn       = "UserLoggedIn"
	EventUserLoggedOut      = "UserLoggedOut"
	EventUserProfileUpdated = "UserProfileUpdated"
)

// UserRegistered is emitted when an account is added to the directory
type UserRegistered struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// UserLoggedIn is emitted when a session logs a user in
type UserLoggedIn struct {
	UserID    int64     `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	LoggedAt  time.Time `json:"logged_at"`
}

// UserLoggedOut is emitted when a session logs its user out
type UserLoggedOut struct {
	UserID    int64     `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	LoggedAt  time.Time `json:"logged_at"`
}

// UserProfileUpdated is emitted when profile fields change
type UserProfileUpdated struct {
	UserID    int64     `json:"user_id"`
	Fields    []string  `json:"fields"`
	UpdatedAt time.Time `json:"updated_at"`
}
