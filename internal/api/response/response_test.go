package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
)

func setupTestContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSuccess_Returns200WithData(t *testing.T) {
	c, rec := setupTestContext(http.MethodGet, "/")

	err := Success(c, map[string]string{"key": "value"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestSuccessWithMessage_Returns200WithMessage(t *testing.T) {
	c, rec := setupTestContext(http.MethodGet, "/")

	err := SuccessWithMessage(c, nil, "Email service is running")

	require.NoError(t, err)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Email service is running", resp.Message)
}

func TestPaginated_IncludesMeta(t *testing.T) {
	c, rec := setupTestContext(http.MethodGet, "/api/emails/search")

	err := Paginated(c, []string{"a", "b"}, 42, 20, 40)

	require.NoError(t, err)
	var resp PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, Meta{Total: 42, Limit: 20, Offset: 40}, resp.Meta)
}

func TestError_MapsCodesToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, apperrors.CodeNotFound, "resource not found"},
		{"invalid input", apperrors.ErrInvalidInput, http.StatusBadRequest, apperrors.CodeInvalidInput, "invalid input"},
		{"file", apperrors.NewFileProcessingError("dados.txt", "file dados.txt is not a valid CSV"), http.StatusBadRequest, apperrors.CodeFileProcessing, "file dados.txt is not a valid CSV"},
		{"send", apperrors.NewSendError(errors.New("connection refused")), http.StatusInternalServerError, apperrors.CodeSendFailed, "failed to send email: connection refused"},
		{"too large", apperrors.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, apperrors.CodePayloadTooLarge, "payload too large"},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, apperrors.CodeUnauthorized, "unauthorized"},
		{"unclassified", errors.New("pq: password authentication failed"), http.StatusInternalServerError, apperrors.CodeInternalError, MessageInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := setupTestContext(http.MethodPost, "/api/emails/send")

			require.NoError(t, Error(c, tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Equal(t, "/api/emails/send", resp.Path)
			assert.False(t, resp.Timestamp.IsZero())
		})
	}
}

func TestError_ValidationIncludesDetails(t *testing.T) {
	c, rec := setupTestContext(http.MethodPost, "/api/emails/send")

	err := apperrors.NewValidationError([]string{"subject: is required", "referencePeriod: is required"})
	require.NoError(t, Error(c, err))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeValidation, resp.Code)
	assert.Equal(t, MessageInvalidForm, resp.Error)
	assert.Equal(t, []string{"subject: is required", "referencePeriod: is required"}, resp.Details)
}

func TestHelpers_StatusAndCode(t *testing.T) {
	tests := []struct {
		name       string
		call       func(echo.Context) error
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(c echo.Context) error { return BadRequest(c, "invalid startDate") }, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"not found", func(c echo.Context) error { return NotFound(c, "audit record not found") }, http.StatusNotFound, apperrors.CodeNotFound},
		{"internal", func(c echo.Context) error { return InternalError(c, "boom") }, http.StatusInternalServerError, apperrors.CodeInternalError},
		{"too large", func(c echo.Context) error { return PayloadTooLarge(c, 100*1024*1024) }, http.StatusRequestEntityTooLarge, apperrors.CodePayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := setupTestContext(http.MethodGet, "/")
			require.NoError(t, tt.call(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestPayloadTooLarge_NamesLimit(t *testing.T) {
	c, rec := setupTestContext(http.MethodPost, "/api/emails/send")

	require.NoError(t, PayloadTooLarge(c, 100*1024*1024))

	assert.Contains(t, decodeError(t, rec).Error, "100MB total")
}

func TestHTTPErrorHandler_MiddlewareMapMessage(t *testing.T) {
	c, rec := setupTestContext(http.MethodGet, "/api/emails/recent")

	HTTPErrorHandler(nil)(echo.NewHTTPError(http.StatusTooManyRequests, map[string]string{
		"error": "rate limit exceeded",
		"code":  "RATE_LIMITED",
	}), c)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "rate limit exceeded", resp.Error)
	assert.Equal(t, "RATE_LIMITED", resp.Code)
	assert.Equal(t, "/api/emails/recent", resp.Path)
}

func TestHTTPErrorHandler_FrameworkErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"route not found", echo.ErrNotFound, http.StatusNotFound, apperrors.CodeNotFound},
		{"body too large", echo.ErrStatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, apperrors.CodePayloadTooLarge},
		{"plain error", errors.New("unexpected"), http.StatusInternalServerError, apperrors.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := setupTestContext(http.MethodGet, "/nope")
			HTTPErrorHandler(nil)(tt.err, c)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	c, rec := setupTestContext(http.MethodGet, "/")
	require.NoError(t, c.String(http.StatusOK, "done"))

	HTTPErrorHandler(nil)(errors.New("late"), c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
