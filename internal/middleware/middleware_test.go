package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp
}

func serveError(err error) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/", func(c *gin.Context) { HandleAPIError(c, err) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestHandleAPIError_Classification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
		field  string
	}{
		{"validation", apperrors.NewValidationError("name", "name is required"), http.StatusBadRequest, dto.ErrorCodeValidationFailed, "name"},
		{"registration number taken", apperrors.ErrRegistrationNumberDuplicated, http.StatusBadRequest, dto.ErrorCodeResourceAlreadyExists, "registrationNumber"},
		{"email taken", apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "email"},
		{"unit taken", apperrors.ErrAcademicUnitAlreadyExists, http.StatusBadRequest, dto.ErrorCodeResourceAlreadyExists, ""},
		{"not found", apperrors.ErrAlumniNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, ""},
		{"wrapped not found", fmt.Errorf("lookup: %w", apperrors.ErrUserNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound, ""},
		{"reset token used", apperrors.ErrPasswordResetTokenUsed, http.StatusBadRequest, dto.ErrorCodeInvalidToken, "token"},
		{"forbidden", apperrors.NewForbiddenError("no"), http.StatusForbidden, dto.ErrorCodeForbidden, ""},
		{"disabled", apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled, ""},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, ""},
		{"expired", apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, ""},
		{"token missing", apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, ""},
		{"revoked", apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, ""},
		{"upload", fmt.Errorf("%w: bucket", apperrors.ErrUploadFailure), http.StatusInternalServerError, dto.ErrorCodeUploadFailed, ""},
		{"storage", fmt.Errorf("%w: conn reset", apperrors.ErrStorageFailure), http.StatusInternalServerError, dto.ErrorCodeDatabaseError, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveError(tt.err)
			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.field, resp.Error.Field)
		})
	}
}

func TestHandleAPIError_DebugInfo(t *testing.T) {
	t.Cleanup(func() { ExposeInternalErrors(false) })

	ExposeInternalErrors(false)
	assert.Empty(t, decodeError(t, serveError(errors.New("pq: secret detail"))).Error.DebugInfo)

	ExposeInternalErrors(true)
	assert.Contains(t, decodeError(t, serveError(errors.New("pq: secret detail"))).Error.DebugInfo, "secret detail")

	// client errors never carry debug info
	assert.Empty(t, decodeError(t, serveError(apperrors.ErrAlumniNotFound)).Error.DebugInfo)
}

func newJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "mw-secret",
		AccessTokenExp:  time.Minute,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "test",
	})
}

func protectedRouter(m *AuthMiddleware, roles ...models.RoleType) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{m.JWTAuth()}
	if len(roles) > 0 {
		handlers = append(handlers, m.RoleRequired(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		id, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok})
	})
	r.GET("/private", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	jwtSvc := newJWT()
	pair, err := jwtSvc.GenerateTokenPair(&models.User{ID: 9, Email: "jane@example.com", Role: models.RoleStaff})
	require.NoError(t, err)
	access := pair.AccessToken
	r := protectedRouter(NewAuthMiddleware(jwtSvc, nil))

	tests := []struct {
		name   string
		target string
		header string
		status int
		code   dto.ErrorCode
	}{
		{"bearer header", "/private", "Bearer " + access, http.StatusOK, ""},
		{"quoted header", "/private", `"Bearer ` + access + `"`, http.StatusOK, ""},
		{"query token ignored", "/private?token=" + access, "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"query authorization ignored", "/private?authorization=Bearer+" + access, "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"missing", "/private", "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"garbage", "/private", "Bearer nope", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, w).Error.Code)
				return
			}
			assert.JSONEq(t, `{"id":9,"ok":true}`, w.Body.String())
		})
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	expired := auth.NewJWTService(auth.JWTConfig{SecretKey: "mw-secret", AccessTokenExp: -time.Minute, RefreshTokenExp: time.Hour})
	pair, err := expired.GenerateTokenPair(&models.User{ID: 9, Email: "jane@example.com", Role: models.RoleUser})
	require.NoError(t, err)
	access := pair.AccessToken

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	protectedRouter(NewAuthMiddleware(newJWT(), nil)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeExpiredToken, decodeError(t, w).Error.Code)
}

func TestRoleRequired_FromToken(t *testing.T) {
	jwtSvc := newJWT()
	r := protectedRouter(NewAuthMiddleware(jwtSvc, nil), models.RoleAdmin, models.RoleStaff)

	for role, want := range map[models.RoleType]int{
		models.RoleAdmin: http.StatusOK,
		models.RoleStaff: http.StatusOK,
		models.RoleUser:  http.StatusForbidden,
	} {
		pair, err := jwtSvc.GenerateTokenPair(&models.User{ID: 3, Email: "x@example.com", Role: role})
		require.NoError(t, err)
		access := pair.AccessToken
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, w.Header().Get(HeaderRequestID), w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrorCodeInternalServer, decodeError(t, w).Error.Code)
}

func corsRequest(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", nil)
	req.Header.Set("Origin", origin)
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_ListedOrigins(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.test/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := corsRequest(r, http.MethodGet, "https://app.test")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = corsRequest(r, http.MethodGet, "https://evil.test")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = corsRequest(r, http.MethodOptions, "https://app.test")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	w = corsRequest(r, http.MethodOptions, "https://evil.test")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardNeverAllowsCredentials(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := corsRequest(r, http.MethodGet, "https://evil.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_EmptyListAdmitsNoOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusForbidden, corsRequest(r, http.MethodGet, "https://app.test").Code)

	// same-origin and non-browser requests carry no Origin
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email" binding:"required,email"`
	}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var p payload
		if !BindJSON(c, &p) {
			return
		}
		c.String(http.StatusOK, p.Email)
	})

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send(`{"email":"jane@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(`{"email":"nope"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, decodeError(t, w).Error.Code)

	w = send(`{"email":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidRequest, decodeError(t, w).Error.Code)
}
