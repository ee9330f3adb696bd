package models

// RoleType defines the user role type
type RoleType string

const (
	RoleUser  RoleType = "user"
	RoleStaff RoleType = "staff"
	RoleAdmin RoleType = "admin"
)

// IsValid reports whether r is a known role
func (r RoleType) IsValid() bool {
	switch r {
	case RoleUser, RoleStaff, RoleAdmin:
		return true
	}
	return false
}
