package domain

import (
	"time"
)

// Status enumerates the lifecycle states of a user account.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// ValidStatus reports whether s is one of the known account statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// User represents a registered account in the storage rental system.
// PasswordHash is empty for accounts provisioned through Google sign-in.
type User struct {
	ID           int64     `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone_number,omitempty"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	ZipCode      string    `json:"zip_code,omitempty"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsGoogleAccount reports whether the account was created via Google sign-in
// and therefore has no local password.
func (u *User) IsGoogleAccount() bool {
	return u.PasswordHash == ""
}

// UserFilter narrows a user listing. Nil fields are ignored.
type UserFilter struct {
	City   *string
	State  *string
	Status *Status
	Skip   int
	Limit  int
}
