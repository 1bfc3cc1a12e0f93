package domain

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash *string   `json:"-"`
	ExternalID   *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasCredential reports whether the user can authenticate at all.
func (u *User) HasCredential() bool {
	return (u.PasswordHash != nil && *u.PasswordHash != "") || (u.ExternalID != nil && *u.ExternalID != "")
}
