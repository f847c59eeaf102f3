package model

import "time"

// User is a backend account referenced by projects (owner) and tasks
// (assignee). The client never creates or mutates users directly except
// through the createUser mutation.
type User struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// Email is the account email, unique on the backend.
	Email string `json:"email"`

	// FirstName and LastName are optional profile fields.
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// FullName is the server-derived display name; may be empty.
	FullName string `json:"full_name"`

	// IsActive reports whether the account is enabled.
	IsActive bool `json:"is_active"`

	// DateJoined is when the account was created.
	DateJoined time.Time `json:"date_joined"`
}

// DisplayName returns the best label for this user: full name, then
// email, then a fixed "Unknown" fallback.
func (u *User) DisplayName() string {
	if u == nil {
		return "Unknown"
	}
	if u.FullName != "" {
		return u.FullName
	}
	if u.Email != "" {
		return u.Email
	}
	return "Unknown"
}
