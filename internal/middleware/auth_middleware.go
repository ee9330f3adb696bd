package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	appAuth "github.com/yigit/alumnisphere/internal/app/auth"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextRole   = "roleType"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	authz      *appAuth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware. authz may be nil, in which
// case roles are taken from the token alone.
func NewAuthMiddleware(jwtService *auth.JWTService, authz *appAuth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		authz:      authz,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").
		WithDetails(details).
		WithSeverity(dto.ErrorSeverityError)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// tokenFromRequest reads the bearer token from the Authorization header only
func tokenFromRequest(c *gin.Context) (string, error) {
	// some clients wrap the value in quotes
	return auth.ExtractBearerToken(strings.Trim(c.GetHeader("Authorization"), "\"'"))
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing or malformed")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RoleRequired lets the request through when the caller holds one of roles.
// With an AuthorizationService the stored role is checked, not the token's.
func (m *AuthMiddleware) RoleRequired(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User information not found")
			return
		}

		if m.authz != nil {
			if err := m.authz.ValidateRole(c.Request.Context(), userID, roles...); err != nil {
				HandleAPIError(c, err)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		role := models.RoleType(c.GetString(ContextRole))
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
			WithDetails("You don't have sufficient permissions for this operation").
			WithSeverity(dto.ErrorSeverityError)
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
	}
}

// GetUserID returns the authenticated user id set by JWTAuth
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
