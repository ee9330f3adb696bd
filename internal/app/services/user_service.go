package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/repositories"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/auth"
	"github.com/yigit/alumnisphere/internal/pkg/filestorage"
	"github.com/yigit/alumnisphere/internal/pkg/helpers"
)

const (
	profilePhotoFolder  = "profile-photos"
	profilePhotoMaxSize = 512
)

// UserService handles profile and account administration
type UserService struct {
	userRepo       repositories.IUserRepository
	tokenRepo      repositories.ITokenRepository
	storage        filestorage.FileStorage
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	storage filestorage.FileStorage,
	maxUploadBytes int64,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		tokenRepo:      tokenRepo,
		storage:        storage,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// GetProfile returns the user's own account
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile changes name and/or email; absent fields are kept
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name, addr := user.Name, user.Email
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name", "name cannot be empty")
		}
	}
	if req.Email != nil {
		addr = normalizeEmail(*req.Email)
		if addr != user.Email {
			exists, err := s.userRepo.EmailExists(ctx, addr)
			if err != nil {
				return nil, fmt.Errorf("error checking email: %w", err)
			}
			if exists {
				return nil, apperrors.ErrEmailAlreadyExists
			}
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, name, addr); err != nil {
		return nil, err
	}
	user.Name, user.Email = name, addr
	return user, nil
}

// ChangePassword verifies the current password, stores the new one and
// revokes every refresh token of the user
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.Password, req.CurrentPassword) {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to revoke refresh tokens after password change")
	}
	return nil
}

// UpdateProfilePhoto resizes the image, stores it and replaces the previous photo
func (s *UserService) UpdateProfilePhoto(ctx context.Context, userID int64, upload filestorage.Upload) (string, error) {
	if s.maxUploadBytes > 0 && upload.Size > s.maxUploadBytes {
		return "", apperrors.NewValidationError("photo", filestorage.ErrFileTooLarge.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	resized, err := filestorage.ResizeImage(upload, profilePhotoMaxSize)
	if err != nil {
		s.logger.Info().Err(err).Int64("userID", userID).Msg("Rejected profile photo")
		return "", apperrors.NewValidationError("photo", "photo must be a JPEG, PNG or GIF image")
	}

	url, err := s.storage.Save(ctx, resized, profilePhotoFolder)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Profile photo upload failed")
		return "", fmt.Errorf("%w: profile photo: %w", apperrors.ErrUploadFailure, err)
	}

	if err := s.userRepo.UpdateProfilePhotoURL(ctx, userID, &url); err != nil {
		return "", err
	}

	if user.ProfilePhotoURL != nil && *user.ProfilePhotoURL != "" {
		if err := s.storage.Delete(ctx, *user.ProfilePhotoURL); err != nil {
			s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to delete previous profile photo")
		}
	}
	return url, nil
}

// ListUsers returns a page of accounts for administrators
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter, page, size int) ([]*models.User, dto.PaginationInfo, error) {
	page, size = helpers.NormalizePage(page, size)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	users, total, err := s.userRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, dto.PaginationInfo{}, err
	}
	return users, helpers.NewPaginationInfo(total, page, size), nil
}

// UpdateRole changes another user's role
func (s *UserService) UpdateRole(ctx context.Context, actorID, userID int64, role models.RoleType) error {
	if !role.IsValid() {
		return apperrors.NewValidationError("role", "role must be one of user, staff, admin")
	}
	if actorID == userID {
		return apperrors.NewForbiddenError("administrators cannot change their own role")
	}
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", userID).Int64("actorID", actorID).Str("role", string(role)).Msg("User role changed")
	return nil
}

// DeleteUser removes another user's account. Alumni records they created keep
// existing with no creator.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID int64) error {
	if actorID == userID {
		return apperrors.NewForbiddenError("administrators cannot delete their own account")
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return apperrors.ErrUserNotFound
		}
		return err
	}
	s.logger.Info().Int64("userID", userID).Int64("actorID", actorID).Msg("User deleted")
	return nil
}
