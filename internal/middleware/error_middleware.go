package middleware

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

var exposeInternalErrors atomic.Bool

// ExposeInternalErrors attaches internal error text to 5xx responses.
// Only meant for development.
func ExposeInternalErrors(enabled bool) {
	exposeInternalErrors.Store(enabled)
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, detail := classify(err)

	if status >= http.StatusInternalServerError {
		logger.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		if exposeInternalErrors.Load() {
			detail = detail.WithDebugInfo("%v", err)
		}
	}

	c.JSON(status, dto.NewErrorResponse(detail))
}

func classify(err error) (int, *dto.ErrorDetail) {
	switch {
	case errors.Is(err, apperrors.ErrValidationFailed):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, apperrors.UserMessage(err, "Validation failed")).
			WithSeverity(dto.ErrorSeverityWarning)
		if field := apperrors.FieldOf(err); field != "" {
			detail = detail.WithField(field)
		}
		return http.StatusBadRequest, detail

	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Email already exists").WithField("email")

	case errors.Is(err, apperrors.ErrRegistrationNumberDuplicated):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Registration number already exists").
			WithField("registrationNumber")

	case errors.Is(err, apperrors.ErrDuplicateKey):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, apperrors.UserMessage(err, "Resource already exists"))

	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, apperrors.UserMessage(err, "Resource not found"))

	case errors.Is(err, apperrors.ErrInvalidPasswordResetToken), errors.Is(err, apperrors.ErrPasswordResetTokenUsed):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, apperrors.UserMessage(err, "Invalid token")).
			WithField("token")

	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, apperrors.UserMessage(err, "Permission denied"))

	case errors.Is(err, apperrors.ErrAccountDisabled):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeAccountDisabled, "Account is disabled")

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")

	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")

	case errors.Is(err, apperrors.ErrTokenNotFound):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeTokenNotFound, "Token not found")

	case errors.Is(err, apperrors.ErrTokenRevoked):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Token revoked")

	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")

	case errors.Is(err, apperrors.ErrUploadFailure):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeUploadFailed, "File upload failed").
			WithSeverity(dto.ErrorSeverityError)

	case errors.Is(err, apperrors.ErrStorageFailure):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "A storage error occurred").
			WithSeverity(dto.ErrorSeverityError)

	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)
	}
}
