package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/repositories"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/auth"
	"github.com/yigit/alumnisphere/internal/pkg/email"
)

// AuthOptions configures registration and password reset
type AuthOptions struct {
	DefaultRole      models.RoleType
	ResetTokenTTL    time.Duration
	FrontendResetURL string
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo       repositories.IUserRepository
	tokenRepo      repositories.ITokenRepository
	resetTokenRepo repositories.IPasswordResetTokenRepository
	jwtService     *auth.JWTService
	emailService   email.EmailService
	opts           AuthOptions
	logger         zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	resetTokenRepo repositories.IPasswordResetTokenRepository,
	jwtService *auth.JWTService,
	emailService email.EmailService,
	opts AuthOptions,
	logger zerolog.Logger,
) *AuthService {
	if !opts.DefaultRole.IsValid() {
		opts.DefaultRole = models.RoleUser
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	return &AuthService{
		userRepo:       userRepo,
		tokenRepo:      tokenRepo,
		resetTokenRepo: resetTokenRepo,
		jwtService:     jwtService,
		emailService:   emailService,
		opts:           opts,
		logger:         logger,
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Register creates an account with the configured default role and signs it in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	addr := normalizeEmail(req.Email)

	exists, err := s.userRepo.EmailExists(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    addr,
		Password: hash,
		Role:     s.opts.DefaultRole,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent registration can still win the unique constraint
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	tokens, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return &dto.AuthResponse{Token: *tokens, User: dto.NewUserResponse(user)}, nil
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Info().Int64("userID", user.ID).Msg("Login rejected: wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login")
	} else {
		now := time.Now()
		user.LastLoginAt = &now
	}

	tokens, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *tokens, User: dto.NewUserResponse(user)}, nil
}

// RefreshToken exchanges a refresh token for a new token pair. The old token
// is revoked, so each refresh token works exactly once.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	stored, err := s.tokenRepo.GetToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored.Revoked {
		return nil, apperrors.ErrTokenRevoked
	}
	if !stored.Live(s.jwtService.Now()) {
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			// another request rotated it first
			return nil, apperrors.ErrTokenRevoked
		}
		return nil, fmt.Errorf("error revoking refresh token: %w", err)
	}

	return s.generateTokenResponse(ctx, user)
}

// Logout revokes a refresh token; an unknown or already revoked token is fine
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokenRepo.RevokeToken(ctx, refreshToken)
	if err != nil && !errors.Is(err, apperrors.ErrTokenNotFound) {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// revokedTokenRetention is how long revoked refresh tokens are kept for auditing
const revokedTokenRetention = 30 * 24 * time.Hour

// PurgeStaleTokens deletes expired refresh tokens, refresh tokens revoked long
// ago and expired password reset tokens. It returns the total removed.
func (s *AuthService) PurgeStaleTokens(ctx context.Context) (int64, error) {
	now := s.jwtService.Now()
	refresh, err := s.tokenRepo.DeleteStaleTokens(ctx, now, now.Add(-revokedTokenRetention))
	if err != nil {
		return 0, err
	}
	resets, err := s.resetTokenRepo.DeleteExpiredTokens(ctx, now)
	if err != nil {
		return refresh, err
	}
	if refresh+resets > 0 {
		s.logger.Info().
			Int64("refreshTokens", refresh).
			Int64("resetTokens", resets).
			Msg("Purged stale tokens")
	}
	return refresh + resets, nil
}

// ForgotPassword issues a reset token and mails the link. It reports success
// for unknown addresses as well.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Info().Msg("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("error getting user: %w", err)
	}

	token := uuid.New().String()
	if err := s.resetTokenRepo.CreateToken(ctx, user.ID, token, time.Now().Add(s.opts.ResetTokenTTL)); err != nil {
		return err
	}

	if s.emailService == nil {
		s.logger.Warn().Int64("userID", user.ID).Msg("No email service configured - reset link not sent")
		return nil
	}
	if err := s.emailService.SendPasswordResetEmail(user.Email, user.Name, s.resetURL(token)); err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to send password reset email")
	}
	return nil
}

func (s *AuthService) resetURL(token string) string {
	base := s.opts.FrontendResetURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// ResetPassword sets a new password using a single-use reset token and signs
// the user out everywhere
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	t, err := s.resetTokenRepo.GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return apperrors.ErrInvalidPasswordResetToken
		}
		return err
	}
	if t.Used {
		return apperrors.ErrPasswordResetTokenUsed
	}
	if time.Now().After(t.ExpiryDate) {
		return apperrors.ErrInvalidPasswordResetToken
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	// only the caller that claims the token may write a password
	if err := s.resetTokenRepo.MarkTokenAsUsed(ctx, token); err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return apperrors.ErrPasswordResetTokenUsed
		}
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, t.UserID, hash); err != nil {
		if relErr := s.resetTokenRepo.ReleaseToken(ctx, token); relErr != nil {
			s.logger.Error().Err(relErr).Int64("userID", t.UserID).Msg("Failed to release password reset token")
		}
		return err
	}
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, t.UserID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", t.UserID).Msg("Failed to revoke refresh tokens after password reset")
	}

	s.logger.Info().Int64("userID", t.UserID).Msg("Password reset completed")
	return nil
}

// generateTokenResponse creates a token pair and stores the refresh token
func (s *AuthService) generateTokenResponse(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	now := s.jwtService.Now()
	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn(now),
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn(now),
	}, nil
}
