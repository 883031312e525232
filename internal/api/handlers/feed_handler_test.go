package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
	"github.com/welldanyogia/webrana-formmail-backend/internal/websocket"
)

func startFeedServer(t *testing.T) (*websocket.Hub, string) {
	t.Helper()
	hub := websocket.NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	handler := NewFeedHandler(hub, websocket.NewSecureUpgrader("http://localhost:3000", nil), nil)
	e := echo.New()
	e.GET("/ws/audit", handler.Connect)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/audit"
}

func TestFeedHandler_StreamsAuditRecords(t *testing.T) {
	hub, url := startFeedServer(t)

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.PublishAudit(&models.EmailAudit{
		ID:         7,
		Recipient:  "dados@example.gov",
		SendStatus: models.SendStatusSuccess,
		SendDate:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg websocket.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, websocket.MessageTypeAuditRecorded, msg.Type)
	assert.Equal(t, websocket.TopicSuccess, msg.Topic)
	audit, ok := msg.Audit.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), audit["id"])
	assert.Equal(t, "2024-03-01T12:00:00Z", audit["sendDate"])
}

func TestFeedHandler_RejectsForeignOrigin(t *testing.T) {
	hub, url := startFeedServer(t)

	header := http.Header{}
	header.Set("Origin", "http://malicious.example")
	_, resp, err := gorillaws.DefaultDialer.Dial(url, header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestFeedHandler_UnregistersOnClose(t *testing.T) {
	hub, url := startFeedServer(t)

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
