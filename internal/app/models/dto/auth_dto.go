package dto

import "time"

// RegisterRequest creates a student account. Required fields are checked by
// the service so a single response lists every missing one.
type RegisterRequest struct {
	Name     string `json:"name" example:"Asha Rao"`
	Email    string `json:"email" example:"asha@example.com"`
	Phone    string `json:"phone" example:"9876543210"`
	Password string `json:"password" example:"s3cret!"`
	Address  string `json:"address" example:"12 Lake Road"`
	Country  string `json:"country" example:"India"`
	State    string `json:"state" example:"Karnataka"`
	District string `json:"district" example:"Bengaluru"`
	Pincode  string `json:"pincode" example:"560001"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"asha@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret!"`
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Country     string    `json:"country"`
	State       string    `json:"state"`
	District    string    `json:"district"`
	Pincode     string    `json:"pincode"`
	Active      bool      `json:"active"`
	Roles       []string  `json:"roles"`
	DateCreated time.Time `json:"date_created"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message     string       `json:"message" example:"Login successful"`
	AccessToken string       `json:"access_token,omitempty"`
	TokenType   string       `json:"token_type,omitempty" example:"Bearer"`
	ExpiresIn   int          `json:"expires_in,omitempty" example:"86400"`
	User        UserResponse `json:"user"`
}

// UserEnvelope wraps a single user.
type UserEnvelope struct {
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

// ProfileUpdateRequest is a partial map of profile fields.
type ProfileUpdateRequest map[string]interface{}

// ProfileRestrictionsResponse tells a client what it may edit.
type ProfileRestrictionsResponse struct {
	EditableFields        []string `json:"editable_fields"`
	ProtectedFields       []string `json:"protected_fields"`
	HasPendingApplication bool     `json:"has_pending_application"`
	Message               string   `json:"message"`
}

// TokenVerifyResponse echoes the authenticated caller.
type TokenVerifyResponse struct {
	Valid bool         `json:"valid"`
	Role  string       `json:"role"`
	User  UserResponse `json:"user"`
}
