package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/repositories"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
)

// SettingsService manages per-user preferences
type SettingsService struct {
	repo   repositories.ISettingsRepository
	logger zerolog.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo repositories.ISettingsRepository, logger zerolog.Logger) *SettingsService {
	return &SettingsService{repo: repo, logger: logger}
}

// Get returns the user's settings, storing the defaults on first access
func (s *SettingsService) Get(ctx context.Context, userID int64) (*models.UserSettings, error) {
	settings, err := s.repo.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, err
	}

	defaults := models.DefaultUserSettings(userID)
	if err := s.repo.Upsert(ctx, &defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}

// Update merges the present fields of patch into the stored settings
func (s *SettingsService) Update(ctx context.Context, userID int64, patch models.UserSettingsPatch) (*models.UserSettings, error) {
	if patch.Timezone != nil {
		if _, err := time.LoadLocation(*patch.Timezone); err != nil || *patch.Timezone == "" {
			return nil, apperrors.NewValidationError("timezone", "unknown timezone")
		}
	}

	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings.Apply(patch)

	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Reset restores the defaults
func (s *SettingsService) Reset(ctx context.Context, userID int64) (*models.UserSettings, error) {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", userID).Msg("User settings reset")
	return s.Get(ctx, userID)
}
