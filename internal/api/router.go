package api

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/welldanyogia/webrana-formmail-backend/internal/api/handlers"
	"github.com/welldanyogia/webrana-formmail-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-formmail-backend/internal/api/response"
	"github.com/welldanyogia/webrana-formmail-backend/internal/logger"
	"github.com/welldanyogia/webrana-formmail-backend/internal/metrics"
	"github.com/welldanyogia/webrana-formmail-backend/internal/services"
	"github.com/welldanyogia/webrana-formmail-backend/internal/websocket"
)

// DefaultMaxUploadSize bounds a whole submission request
const DefaultMaxUploadSize int64 = 100 * 1024 * 1024

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB          *gorm.DB
	Submissions services.SubmissionService
	Audits      services.AuditQueryService
	// Hub serves the live audit feed; nil disables /ws/audit
	Hub            *websocket.Hub
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	SecurityLogger *logger.SecurityLogger

	// Security configuration
	APIKey         string  // API key for authentication (empty = disabled)
	AllowedOrigins string  // Comma-separated CORS and websocket origins
	Production     bool    // Drops wildcard origins
	RateLimit      float64 // Requests per second per IP (0 = default)
	RateBurst      int     // Burst size for rate limiter (0 = default)
	MaxUploadSize  int64   // Total request body limit for submissions
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.HTTPErrorHandler(cfg.Logger)

	appLogger := cfg.Logger
	if appLogger == nil {
		appLogger = slog.Default()
	}
	secLogger := cfg.SecurityLogger
	if secLogger == nil {
		secLogger = logger.NewSecurityLogger(appLogger)
	}
	maxUpload := cfg.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadSize
	}

	// 1. Request ID first so every later log line carries it
	e.Use(middleware.RequestID())

	// 2. Request logging
	e.Use(middleware.RequestLogger(appLogger))

	// 3. Recover from panics
	e.Use(middleware.Recover(appLogger))

	// 4. Metrics per route template
	e.Use(middleware.HTTPMetrics(cfg.Metrics))

	// 5. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 6. CORS
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production))

	// 7. Rate limiting
	e.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateBurst,
		SecurityLogger:    secLogger,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, feedCounter(cfg.Hub))
	emailHandler := handlers.NewEmailHandler(cfg.Submissions, secLogger, appLogger, maxUpload)
	auditHandler := handlers.NewAuditHandler(cfg.Audits)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)
	e.GET("/api/emails/health", emailHandler.Health)
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics.Handler()))
	}

	auth := middleware.APIKeyAuth(cfg.APIKey, secLogger, appLogger)

	// API routes
	api := e.Group("/api", auth)

	emails := api.Group("/emails")
	bodyLimit := middleware.BodyLimit(maxUpload)
	emails.POST("/send", emailHandler.Send, bodyLimit)
	emails.POST("/send-json", emailHandler.SendJSON, bodyLimit)

	// Audit trail routes
	emails.GET("/history", auditHandler.History)
	emails.GET("/recent", auditHandler.Recent)
	emails.GET("/search", auditHandler.Search)
	emails.GET("/stats", auditHandler.Stats)
	emails.GET("/audit/:id", auditHandler.Get)

	// Live audit feed
	if cfg.Hub != nil {
		origins := strings.Join(middleware.ParseOrigins(cfg.AllowedOrigins, cfg.Production), ",")
		feedHandler := handlers.NewFeedHandler(cfg.Hub, websocket.NewSecureUpgrader(origins, secLogger), appLogger)
		e.GET("/ws/audit", feedHandler.Connect, auth)
	}

	return e
}

func feedCounter(hub *websocket.Hub) handlers.FeedCounter {
	if hub == nil {
		return nil
	}
	return hub
}
