package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welldanyogia/webrana-formmail-backend/internal/logger"
)

const testAPIKey = "test-api-key"

func runAuth(t *testing.T, apiKey, path string, headers map[string]string, secLogger *logger.SecurityLogger) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	handler := APIKeyAuth(apiKey, secLogger, nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})
	return rec, handler(c)
}

func assertUnauthorized(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, message, httpErr.Message.(map[string]string)["error"])
}

func TestAPIKeyAuth_MissingHeader(t *testing.T) {
	_, err := runAuth(t, testAPIKey, "/api/emails/send", nil, nil)

	assertUnauthorized(t, err, "missing authorization header")
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	_, err := runAuth(t, testAPIKey, "/api/emails/send", map[string]string{
		"Authorization": "Bearer wrong-key",
	}, nil)

	assertUnauthorized(t, err, "invalid API key")
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"bearer token", map[string]string{"Authorization": "Bearer " + testAPIKey}},
		{"api key header", map[string]string{HeaderAPIKey: testAPIKey}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := runAuth(t, testAPIKey, "/api/emails/send", tt.headers, nil)

			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAPIKeyAuth_HealthEndpointsSkipAuth(t *testing.T) {
	for _, path := range []string{"/health", "/ready"} {
		t.Run(path, func(t *testing.T) {
			rec, err := runAuth(t, testAPIKey, path, nil, nil)

			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAPIKeyAuth_NoAPIKeyConfigured(t *testing.T) {
	rec, err := runAuth(t, "", "/api/emails/send", nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyAuth_LogsFailureWithoutCredentials(t *testing.T) {
	var buf bytes.Buffer
	secLogger := logger.NewSecurityLoggerWithHandler(slog.NewJSONHandler(&buf, nil))

	_, err := runAuth(t, testAPIKey, "/api/emails/send", map[string]string{
		"Authorization": "Bearer leaked-secret",
	}, secLogger)

	require.Error(t, err)
	assert.Contains(t, buf.String(), "auth_failure")
	assert.Contains(t, buf.String(), "/api/emails/send")
	assert.NotContains(t, buf.String(), "leaked-secret")
}

func TestAPIKeyAuth_QueryKeyOnlyForWebsocketUpgrade(t *testing.T) {
	rec, err := runAuth(t, testAPIKey, "/ws/audit?api_key="+testAPIKey, map[string]string{
		"Upgrade":    "websocket",
		"Connection": "Upgrade",
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = runAuth(t, testAPIKey, "/api/emails/recent?api_key="+testAPIKey, nil, nil)
	assertUnauthorized(t, err, "missing authorization header")
}
