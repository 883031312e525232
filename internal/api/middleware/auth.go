// Package middleware provides HTTP middleware for the form relay API.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
	"github.com/welldanyogia/webrana-formmail-backend/internal/logger"
)

// HeaderAPIKey is accepted as an alternative to a bearer token
const HeaderAPIKey = "X-API-Key"

// QueryAPIKey carries the key on websocket upgrades, where browsers cannot
// set headers
const QueryAPIKey = "api_key"

// APIKeyAuth validates the API key from the Authorization bearer token or
// the X-API-Key header. An empty apiKey disables the check.
// Uses constant-time comparison to prevent timing attacks.
func APIKeyAuth(apiKey string, secLogger *logger.SecurityLogger, appLogger *slog.Logger) echo.MiddlewareFunc {
	if apiKey == "" && appLogger != nil {
		appLogger.Warn("API_KEY not set - API is UNSECURED")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()

			// Skip auth for health endpoints
			if strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/ready") {
				return next(c)
			}

			if apiKey == "" {
				return next(c)
			}

			token := extractToken(c)
			if token == "" {
				if secLogger != nil {
					secLogger.AuthFailure(c.RealIP(), path, "missing credentials")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error": "missing authorization header",
					"code":  apperrors.CodeUnauthorized,
				})
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				if secLogger != nil {
					secLogger.AuthFailure(c.RealIP(), path, "invalid api key")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error": "invalid API key",
					"code":  apperrors.CodeUnauthorized,
				})
			}

			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	r := c.Request()
	if auth := r.Header.Get(echo.HeaderAuthorization); auth != "" {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if key := r.Header.Get(HeaderAPIKey); key != "" {
		return strings.TrimSpace(key)
	}
	if c.IsWebSocket() {
		return strings.TrimSpace(c.QueryParam(QueryAPIKey))
	}
	return ""
}
