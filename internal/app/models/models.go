package models

// RoleName identifies a capability role.
type RoleName string

const (
	RoleStudent RoleName = "student"
	RoleAdmin   RoleName = "admin"
)

// Valid reports whether r is one of the recognised roles.
func (r RoleName) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Role defines the role model based on the 'roles' table
type Role struct {
	ID          int64    `json:"id" db:"id"`
	Name        RoleName `json:"name" db:"name"`
	Description string   `json:"description" db:"description"`
}

// DefaultRoles are seeded at startup.
var DefaultRoles = []Role{
	{Name: RoleStudent, Description: "Student applicant"},
	{Name: RoleAdmin, Description: "Admissions administrator"},
}
