package dto

import (
	"time"

	"github.com/yigit/alumnisphere/internal/app/models"
)

// UserResponse represents public user information
type UserResponse struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"isActive"`
	ProfilePhotoURL string     `json:"profilePhotoUrl,omitempty"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// NewUserResponse maps a user model to its public shape
func NewUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.ProfilePhotoURL != nil {
		resp.ProfilePhotoURL = *u.ProfilePhotoURL
	}
	return resp
}

// UpdateProfileRequest represents profile update data; absent fields are kept
type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=2,max=100"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// UpdateRoleRequest changes the role of a user (admin only)
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user staff admin" example:"staff"`
}

// UserListQuery represents the admin user listing filters
type UserListQuery struct {
	Search string `form:"search"`
	Role   string `form:"role" binding:"omitempty,oneof=user staff admin"`
}

// ProfilePhotoResponse represents a successful profile photo update
type ProfilePhotoResponse struct {
	ProfilePhotoURL string `json:"profilePhotoUrl"`
}
