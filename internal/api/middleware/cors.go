package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefaultAllowedOrigin is used when no origins are configured
const DefaultAllowedOrigin = "http://localhost:3000"

// ParseOrigins splits a comma-separated origin list. The wildcard origin is
// dropped in production; an empty result falls back to DefaultAllowedOrigin.
func ParseOrigins(allowedOrigins string, production bool) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(allowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" || (production && origin == "*") {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = []string{DefaultAllowedOrigin}
	}
	return origins
}

// SecureCORS returns CORS middleware for the comma-separated allowed
// origins
func SecureCORS(allowedOrigins string, production bool) echo.MiddlewareFunc {
	origins := ParseOrigins(allowedOrigins, production)

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			HeaderAPIKey,
		},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
