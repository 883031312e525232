package websocket

import (
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/welldanyogia/webrana-formmail-backend/internal/logger"
)

// DefaultAllowedOrigin is used when no origins are configured
const DefaultAllowedOrigin = "http://localhost:3000"

// ParseAllowedOrigins splits a comma-separated ALLOWED_ORIGINS value,
// dropping blanks. An empty result falls back to DefaultAllowedOrigin.
func ParseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, origin := range parts {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	if len(origins) == 0 {
		origins = []string{DefaultAllowedOrigin}
	}
	return origins
}

// NewSecureUpgrader creates a WebSocket upgrader that only accepts the given
// origins. Rejections are reported through secLogger when it is non-nil.
func NewSecureUpgrader(allowedOrigins string, secLogger *logger.SecurityLogger) websocket.Upgrader {
	origins := ParseAllowedOrigins(allowedOrigins)

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Allow same-origin requests (empty Origin)
			if origin == "" {
				return true
			}

			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}

			if secLogger != nil {
				secLogger.InvalidOrigin(remoteIP(r), origin)
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
