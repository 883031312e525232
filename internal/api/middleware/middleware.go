package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/welldanyogia/webrana-formmail-backend/internal/metrics"
)

// ContextKeyRequestID is the echo context key holding the request ID
const ContextKeyRequestID = "request_id"

// RequestID assigns every request an ID, reusing a valid inbound X-Request-ID
func RequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.NewString()
		},
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(ContextKeyRequestID, id)
		},
	})
}

// GetRequestID returns the ID assigned by RequestID, or "" when unset
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(ContextKeyRequestID).(string); ok {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// RequestLogger returns a middleware that logs HTTP requests
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			logger.Info("request",
				slog.String("request_id", GetRequestID(c)),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			)

			return nil
		}
	}
}

// HTTPMetrics records request counts and latency per route template
func HTTPMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.RecordHTTPRequest(c.Request().Method, route, strconv.Itoa(status), time.Since(start))

			return err
		}
	}
}

// BodyLimit rejects request bodies larger than maxBytes with a 413
func BodyLimit(maxBytes int64) echo.MiddlewareFunc {
	return middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: strconv.FormatInt(maxBytes, 10),
	})
}

// Recover returns a middleware that recovers from panics
func Recover(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisablePrintStack: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			if logger != nil {
				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(c)),
					slog.String("path", c.Request().URL.Path),
					slog.Any("error", err),
					slog.String("stack", string(stack)),
				)
			}
			return err
		},
	})
}
