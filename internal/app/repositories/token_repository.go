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
	"github.com/yigit/alumnisphere/internal/pkg/dberrors"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

// RefreshTokenConstraint is the unique constraint on refresh_tokens.token
const RefreshTokenConstraint = "refresh_tokens_token_key"

// ITokenRepository stores refresh tokens
type ITokenRepository interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
	DeleteStaleTokens(ctx context.Context, now time.Time, revokedBefore time.Time) (int64, error)
}

type TokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	sql, args, err := r.sb.Insert("refresh_tokens").
		Columns("token", "user_id", "expiry_date").
		Values(token, userID, expiryDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create token query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, RefreshTokenConstraint) {
			logger.Warn().Int64("userID", userID).Msg("Refresh token collision")
			return apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error storing refresh token")
		return fmt.Errorf("error creating token: %w", err)
	}
	return nil
}

// GetToken returns the stored row whatever its state; callers decide whether it is live
func (r *TokenRepository) GetToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	sql, args, err := r.sb.Select("token", "user_id", "expiry_date", "is_revoked", "created_at").
		From("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get token query: %w", err)
	}

	var t models.RefreshToken
	err = r.db.QueryRow(ctx, sql, args...).Scan(&t.Token, &t.UserID, &t.ExpiryDate, &t.Revoked, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTokenNotFound
		}
		logger.Error().Err(err).Msg("Error reading refresh token")
		return nil, fmt.Errorf("error retrieving token: %w", err)
	}
	return &t, nil
}

// RevokeToken flips a live token to revoked. ErrTokenNotFound means it was
// unknown or already revoked, so only one of two racing rotations succeeds.
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	sql, args, err := r.sb.Update("refresh_tokens").
		Set("is_revoked", true).
		Set("revoked_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"token": token, "is_revoked": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build revoke token query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error revoking refresh token")
		return fmt.Errorf("error revoking token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("refresh_tokens").
		Set("is_revoked", true).
		Set("revoked_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"user_id": userID, "is_revoked": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build revoke user tokens query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error revoking user refresh tokens")
		return fmt.Errorf("error revoking user tokens: %w", err)
	}
	return nil
}

// DeleteStaleTokens removes tokens that expired before now and tokens revoked
// before revokedBefore. It returns the number of rows removed.
func (r *TokenRepository) DeleteStaleTokens(ctx context.Context, now time.Time, revokedBefore time.Time) (int64, error) {
	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Or{
			squirrel.Lt{"expiry_date": now},
			squirrel.And{
				squirrel.Eq{"is_revoked": true},
				squirrel.Lt{"revoked_at": revokedBefore},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete stale tokens query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error deleting stale refresh tokens")
		return 0, fmt.Errorf("error deleting stale tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
