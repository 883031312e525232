package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
)

// Messages returned instead of internal error details
const (
	MessageInternalError = "internal server error, please try again later"
	MessageInvalidForm   = "invalid form data"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Details   []string  `json:"details,omitempty"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    Meta        `json:"meta"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// Success returns a successful response with data
func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// Paginated returns a paginated response
func Paginated(c echo.Context, data interface{}, total int64, limit, offset int) error {
	return c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Meta: Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response with appropriate status code. Internal
// errors are reported with a generic message.
func Error(c echo.Context, err error) error {
	code := apperrors.GetErrorCode(err)
	status := getHTTPStatus(code)

	body := newErrorResponse(c, err.Error(), code)
	switch {
	case code == apperrors.CodeInternalError:
		body.Error = MessageInternalError
	case code == apperrors.CodeValidation:
		body.Error = MessageInvalidForm
		if vErr := apperrors.GetValidationError(err); vErr != nil {
			body.Details = vErr.Details
		}
	}

	return c.JSON(status, body)
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, newErrorResponse(c, message, apperrors.CodeInvalidInput))
}

// NotFound returns a 404 Not Found response
func NotFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, newErrorResponse(c, message, apperrors.CodeNotFound))
}

// PayloadTooLarge returns a 413 response naming the upload limit
func PayloadTooLarge(c echo.Context, maxBytes int64) error {
	message := fmt.Sprintf("upload exceeds the maximum allowed size (%dMB total, 10MB per file)", maxBytes/(1024*1024))
	return c.JSON(http.StatusRequestEntityTooLarge, newErrorResponse(c, message, apperrors.CodePayloadTooLarge))
}

// InternalError returns a 500 Internal Server Error response
func InternalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, newErrorResponse(c, message, apperrors.CodeInternalError))
}

// HTTPErrorHandler renders errors that escape handlers and middleware in the
// standard error shape
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			if logger != nil {
				logger.Error("unhandled error",
					slog.String("path", c.Request().URL.Path),
					slog.Any("error", err))
			}
			if writeErr := Error(c, err); writeErr != nil && logger != nil {
				logger.Error("failed to write error response", slog.Any("error", writeErr))
			}
			return
		}

		message, code := httpErrorMessage(he)
		body := newErrorResponse(c, message, code)

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(he.Code)
		} else {
			writeErr = c.JSON(he.Code, body)
		}
		if writeErr != nil && logger != nil {
			logger.Error("failed to write error response", slog.Any("error", writeErr))
		}
	}
}

// httpErrorMessage extracts the message and code from an echo.HTTPError.
// Middleware in this service sets Message to a map with "error" and "code".
func httpErrorMessage(he *echo.HTTPError) (string, string) {
	code := codeForStatus(he.Code)

	switch m := he.Message.(type) {
	case map[string]string:
		if c, ok := m["code"]; ok {
			code = c
		}
		return m["error"], code
	case string:
		return m, code
	case error:
		return m.Error(), code
	default:
		return http.StatusText(he.Code), code
	}
}

func newErrorResponse(c echo.Context, message, code string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		Path:      c.Request().URL.Path,
		Timestamp: time.Now().UTC(),
	}
}

// getHTTPStatus maps error codes to HTTP status codes
func getHTTPStatus(code string) int {
	switch code {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidInput, apperrors.CodeValidation, apperrors.CodeFileProcessing:
		return http.StatusBadRequest
	case apperrors.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// codeForStatus is the inverse mapping used for framework errors
func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperrors.CodeNotFound
	case http.StatusBadRequest:
		return apperrors.CodeInvalidInput
	case http.StatusRequestEntityTooLarge:
		return apperrors.CodePayloadTooLarge
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	default:
		return apperrors.CodeInternalError
	}
}
