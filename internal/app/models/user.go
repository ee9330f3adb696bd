package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID              int64      `json:"id" db:"id" example:"1"`
	Name            string     `json:"name" db:"name" example:"Jane Doe"`
	Email           string     `json:"email" db:"email" example:"jane@alumni.edu"`
	Password        string     `json:"-" db:"password"`
	Role            RoleType   `json:"role" db:"role" example:"user"`
	IsActive        bool       `json:"isActive" db:"is_active" example:"true"`
	ProfilePhotoURL *string    `json:"profilePhotoUrl,omitempty" db:"profile_photo_url" example:"http://localhost:8080/uploads/avatars/photo.jpg"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// UserFilter narrows the admin user listing
type UserFilter struct {
	Search string // case-insensitive substring of name or email
	Role   RoleType
}

// PasswordResetToken is a single-use token issued by forgot-password
type PasswordResetToken struct {
	UserID     int64
	Token      string
	ExpiryDate time.Time
	Used       bool
}

// RefreshToken is a stored refresh token row
type RefreshToken struct {
	Token      string
	UserID     int64
	ExpiryDate time.Time
	Revoked    bool
	CreatedAt  time.Time
}

// Live reports whether the token can still be exchanged at now
func (t *RefreshToken) Live(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiryDate)
}
