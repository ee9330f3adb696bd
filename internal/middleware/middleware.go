package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
)

// ContextRequestID is the context key of the request id
const ContextRequestID = "requestID"

// HeaderRequestID carries the request id in both directions
const HeaderRequestID = "X-Request-ID"

// RequestLogger logs one event per request and propagates X-Request-ID
func RequestLogger(lgr zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		reqLogger := lgr.With().Str("requestID", requestID).Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		event := reqLogger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = reqLogger.Error()
		case status >= http.StatusBadRequest:
			event = reqLogger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("clientIP", c.ClientIP()).
			Int("size", c.Writer.Size()).
			Msg("Request handled")
	}
}

// Recovery turns panics into a 500 error envelope
func Recovery(lgr zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				lgr.Error().
					Interface("panic", r).
					Str("requestID", c.GetString(ContextRequestID)).
					Str("path", c.Request.URL.Path).
					Msg("Recovered from panic")
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
					WithSeverity(dto.ErrorSeverityCritical)
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
			}
		}()
		c.Next()
	}
}

// CORS allows the configured origins. "*" admits any origin but then no
// credentials are allowed; an empty list admits none.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", HeaderRequestID},
		ExposeHeaders: []string{HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "*":
			cfg.AllowAllOrigins = true
		case o != "":
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}

	switch {
	case cfg.AllowAllOrigins:
		cfg.AllowOrigins = nil
	case len(cfg.AllowOrigins) == 0:
		cfg.AllowOriginFunc = func(string) bool { return false }
	default:
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
