// Package user holds the registered users and the current user of a session.
package user

import (
	"errors"
	"strings"
)

const AggregateType = "User"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameRequired     = errors.New("username is required")
	ErrUsernameTaken        = errors.New("username is already taken")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
	ErrNotLoggedIn          = errors.New("no user is logged in")
)

// User is a registered account. PasswordHash is a bcrypt hash.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash,omitempty"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
}

// Public returns u without its password hash
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// Registration is the data needed to create an account
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries the fields to change; nil fields are left untouched.
// The id and the password cannot be changed this way.
type ProfileUpdate struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Address   *string `json:"address,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

func (p ProfileUpdate) apply(u User) User {
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	return u
}

// Fields lists the names of the fields set in p
func (p ProfileUpdate) Fields() []string {
	var fields []string
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"username", p.Username},
		{"email", p.Email},
		{"firstName", p.FirstName},
		{"lastName", p.LastName},
		{"address", p.Address},
		{"phone", p.Phone},
	} {
		if f.value != nil {
			fields = append(fields, f.name)
		}
	}
	return fields
}

func cloneUsers(users []User) []User {
	out := make([]User, len(users))
	copy(out, users)
	return out
}

func indexOf(users []User, match func(User) bool) int {
	for i, u := range users {
		if match(u) {
			return i
		}
	}
	return -1
}
