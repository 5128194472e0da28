package dto

// UserListResponse is a page of users.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

// AdminUserUpdateRequest is a partial map; admins may also change email and
// phone.
type AdminUserUpdateRequest map[string]interface{}

// ResetPasswordRequest sets a new password for a user.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=6" example:"changeme"`
}

// CreateAdminRequest creates another administrator account.
type CreateAdminRequest struct {
	RegisterRequest
}

// UserListQuery holds the admin user listing filters.
type UserListQuery struct {
	Role    string `form:"role" example:"student"`
	Search  string `form:"search" example:"asha"`
	Page    int    `form:"-"`
	PerPage int    `form:"-"`
}
