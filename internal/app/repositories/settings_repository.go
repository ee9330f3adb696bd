package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
)

// ISettingsRepository defines per-user settings persistence
type ISettingsRepository interface {
	Get(ctx context.Context, userID int64) (*models.UserSettings, error)
	Upsert(ctx context.Context, s *models.UserSettings) error
	Delete(ctx context.Context, userID int64) error
}

// SettingsRepository stores per-user settings, one row per user
type SettingsRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Get returns the stored settings of a user, or ErrResourceNotFound when none were saved yet
func (r *SettingsRepository) Get(ctx context.Context, userID int64) (*models.UserSettings, error) {
	sql, args, err := r.sb.Select(
		"user_id", "theme", "language", "timezone", "items_per_page",
		"notify_email", "notify_sms", "notify_newsletter", "updated_at",
	).
		From("user_settings").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get settings query: %w", err)
	}

	s := &models.UserSettings{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&s.UserID, &s.Theme, &s.Language, &s.Timezone, &s.ItemsPerPage,
		&s.Notifications.Email, &s.Notifications.SMS, &s.Notifications.Newsletter, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("error getting settings: %w", err)
	}
	return s, nil
}

// Upsert writes the full settings row of a user
func (r *SettingsRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	s.UpdatedAt = time.Now()
	sql, args, err := r.sb.Insert("user_settings").
		Columns(
			"user_id", "theme", "language", "timezone", "items_per_page",
			"notify_email", "notify_sms", "notify_newsletter", "updated_at",
		).
		Values(
			s.UserID, s.Theme, s.Language, s.Timezone, s.ItemsPerPage,
			s.Notifications.Email, s.Notifications.SMS, s.Notifications.Newsletter, s.UpdatedAt,
		).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			theme = EXCLUDED.theme,
			language = EXCLUDED.language,
			timezone = EXCLUDED.timezone,
			items_per_page = EXCLUDED.items_per_page,
			notify_email = EXCLUDED.notify_email,
			notify_sms = EXCLUDED.notify_sms,
			notify_newsletter = EXCLUDED.notify_newsletter,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert settings query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}
	return nil
}

// Delete drops the stored settings of a user; missing rows are fine
func (r *SettingsRepository) Delete(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Delete("user_settings").Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete settings query: %w", err)
	}
	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error deleting settings: %w", err)
	}
	return nil
}
