package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/repositories"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

// ErrRoleNotAllowed is returned when the current role of a user is not in the allowed set
var ErrRoleNotAllowed = apperrors.NewForbiddenError("you don't have permission for this action")

// AuthorizationService checks roles against the stored account, so a demoted
// or disabled user loses access before their access token expires
type AuthorizationService struct {
	userRepo repositories.IUserRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(userRepo repositories.IUserRepository) *AuthorizationService {
	return &AuthorizationService{userRepo: userRepo}
}

// CurrentRole returns the stored role of an active user
func (s *AuthorizationService) CurrentRole(ctx context.Context, userID int64) (models.RoleType, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return "", apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user by ID in CurrentRole")
		return "", fmt.Errorf("failed to get user information: %w", err)
	}
	if !user.IsActive {
		return "", apperrors.ErrAccountDisabled
	}
	return user.Role, nil
}

// HasRole reports whether the user currently holds one of roles
func (s *AuthorizationService) HasRole(ctx context.Context, userID int64, roles ...models.RoleType) (bool, error) {
	current, err := s.CurrentRole(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if current == r {
			return true, nil
		}
	}
	return false, nil
}

// ValidateRole returns ErrRoleNotAllowed unless the user holds one of roles
func (s *AuthorizationService) ValidateRole(ctx context.Context, userID int64, roles ...models.RoleType) error {
	ok, err := s.HasRole(ctx, userID, roles...)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoleNotAllowed
	}
	return nil
}
