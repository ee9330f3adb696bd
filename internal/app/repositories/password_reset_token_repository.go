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

// IPasswordResetTokenRepository defines password reset token persistence
type IPasswordResetTokenRepository interface {
	CreateToken(ctx context.Context, userID int64, token string, expiryDate time.Time) error
	GetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkTokenAsUsed(ctx context.Context, token string) error
	ReleaseToken(ctx context.Context, token string) error
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// PasswordResetTokenRepository manages password reset tokens in the database
type PasswordResetTokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPasswordResetTokenRepository creates a new PasswordResetTokenRepository
func NewPasswordResetTokenRepository(db *pgxpool.Pool) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateToken stores a new password reset token in the database
func (r *PasswordResetTokenRepository) CreateToken(ctx context.Context, userID int64, token string, expiryDate time.Time) error {
	sql, args, err := r.sb.Insert("password_reset_tokens").
		Columns("user_id", "token", "expiry_date").
		Values(userID, token, expiryDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create reset token query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error creating password reset token: %w", err)
	}
	return nil
}

// GetToken retrieves a token record
func (r *PasswordResetTokenRepository) GetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	sql, args, err := r.sb.Select("user_id", "token", "expiry_date", "used").
		From("password_reset_tokens").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get reset token query: %w", err)
	}

	t := &models.PasswordResetToken{}
	if err = r.db.QueryRow(ctx, sql, args...).Scan(&t.UserID, &t.Token, &t.ExpiryDate, &t.Used); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error retrieving password reset token: %w", err)
	}
	return t, nil
}

// MarkTokenAsUsed flips an unused token to used. A token that is missing or
// already used yields ErrTokenNotFound, so two concurrent resets cannot both win.
func (r *PasswordResetTokenRepository) MarkTokenAsUsed(ctx context.Context, token string) error {
	sql, args, err := r.sb.Update("password_reset_tokens").
		Set("used", true).
		Where(squirrel.Eq{"token": token, "used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark reset token query: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error marking token as used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}
	return nil
}

// ReleaseToken returns a used token to the unused state after the password
// update it was claimed for failed
func (r *PasswordResetTokenRepository) ReleaseToken(ctx context.Context, token string) error {
	sql, args, err := r.sb.Update("password_reset_tokens").
		Set("used", false).
		Where(squirrel.Eq{"token": token, "used": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build release reset token query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error releasing password reset token: %w", err)
	}
	return nil
}

// DeleteExpiredTokens removes tokens that expired before now
func (r *PasswordResetTokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	sql, args, err := r.sb.Delete("password_reset_tokens").
		Where(squirrel.Lt{"expiry_date": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete expired reset tokens query: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired password reset tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
