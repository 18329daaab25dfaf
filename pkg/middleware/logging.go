package middleware

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"farmportal/pkg/metrics"
	"farmportal/pkg/session"
)

// RequestID tags every request with a uuid in X-Request-ID.
func RequestID() echo.MiddlewareFunc {
	return echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	})
}

// AccessLog writes one zap line per request and records the request
// duration histogram. Routes are labelled by their pattern, not the raw
// path, to keep metric cardinality bounded.
func AccessLog(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			elapsed := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTP(c.Request().Method, route, strconv.Itoa(status), elapsed)

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", elapsed),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			}
			if p, ok := session.From(c); ok {
				fields = append(fields, zap.Uint("uid", p.UserID), zap.String("role", p.Role))
			}
			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
