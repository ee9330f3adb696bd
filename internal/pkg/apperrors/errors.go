package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrDuplicateKey     = errors.New("duplicate key")

	// Collaborator failures
	ErrStorageFailure = errors.New("storage failure")
	ErrUploadFailure  = errors.New("upload failure")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// Alumni errors
var (
	ErrAlumniNotFound               = NewResourceNotFoundError("alumni record not found")
	ErrRegistrationNumberDuplicated = NewDuplicateKeyError("registration number already exists")
)

// User errors
var (
	ErrUserNotFound       = NewResourceNotFoundError("user not found")
	ErrEmailAlreadyExists = NewDuplicateKeyError("email already exists")
)

// Academic unit errors
var (
	ErrAcademicUnitNotFound      = NewResourceNotFoundError("academic unit not found")
	ErrAcademicUnitAlreadyExists = NewDuplicateKeyError("academic unit with this name or code already exists")
)

// Contact message errors
var (
	ErrContactMessageNotFound = NewResourceNotFoundError("contact message not found")
)

// Password reset errors
var (
	ErrInvalidPasswordResetToken = &CustomError{Err: ErrTokenInvalid, Message: "invalid or expired password reset token"}
	ErrPasswordResetTokenUsed    = &CustomError{Err: ErrTokenInvalid, Message: "password reset token has already been used"}
)

// NewResourceNotFoundError creates a not-found error with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewDuplicateKeyError creates a uniqueness-violation error with a message
func NewDuplicateKeyError(message string) error {
	return &CustomError{
		Err:     ErrDuplicateKey,
		Message: message,
	}
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Field:   field,
	}
}

// NewForbiddenError creates a permission-denied error with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// Is reports whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Field   string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// UserMessage returns the message of the outermost CustomError in err's chain,
// or fallback when there is none.
func UserMessage(err error, fallback string) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// FieldOf returns the offending field recorded on a validation error, if any.
func FieldOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}
