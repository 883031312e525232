package handlers

import (
	"log/slog"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/welldanyogia/webrana-formmail-backend/internal/websocket"
)

// FeedHandler upgrades connections to the live audit feed
type FeedHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
	logger   *slog.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(hub *websocket.Hub, upgrader gorillaws.Upgrader, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{hub: hub, upgrader: upgrader, logger: logger}
}

// Connect handles GET /ws/audit
func (h *FeedHandler) Connect(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error
		if h.logger != nil {
			h.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		}
		return nil
	}

	client := websocket.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
