package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Phone        string     `json:"phone" db:"phone"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Address      string     `json:"address" db:"address"`
	Country      string     `json:"country" db:"country"`
	State        string     `json:"state" db:"state"`
	District     string     `json:"district" db:"district"`
	Pincode      string     `json:"pincode" db:"pincode"`
	Active       bool       `json:"active" db:"active"`
	SessionKey   string     `json:"-" db:"session_key"`
	Roles        []RoleName `json:"roles"`
	DateCreated  time.Time  `json:"date_created" db:"date_created"`
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role RoleName) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleStrings returns the role names as plain strings.
func (u *User) RoleStrings() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, string(r))
	}
	return out
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role    RoleName
	Search  string
	Page    int
	PerPage int
}

// UserStats aggregates account counts.
type UserStats struct {
	Total    int64
	Active   int64
	Inactive int64
	ByRole   map[RoleName]int64
	Recent   int64
}
