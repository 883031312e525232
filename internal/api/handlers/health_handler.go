package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// pingTimeout bounds each database ping
const pingTimeout = 2 * time.Second

// FeedCounter reports the number of connected audit feed clients.
// *websocket.Hub implements it.
type FeedCounter interface {
	ClientCount() int
}

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	db   *gorm.DB
	feed FeedCounter
}

// NewHealthHandler creates a new HealthHandler. feed may be nil.
func NewHealthHandler(db *gorm.DB, feed FeedCounter) *HealthHandler {
	return &HealthHandler{db: db, feed: feed}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string            `json:"status"`
	Services    map[string]string `json:"services"`
	FeedClients int               `json:"feedClients"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	services := make(map[string]string)
	status := "healthy"

	if err := h.pingDB(c.Request().Context()); err != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	resp := HealthResponse{
		Status:   status,
		Services: services,
	}
	if h.feed != nil {
		resp.FeedClients = h.feed.ClientCount()
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, resp)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database connection failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
