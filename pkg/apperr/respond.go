package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Respond writes err as the JSON error body used by every API controller.
// Internal errors are logged and answered with a generic message.
func Respond(c echo.Context, err error) error {
	status := Status(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.JSON(status, map[string]string{"error": "internal error"})
	}
	return c.JSON(status, map[string]string{"error": Message(err)})
}

// Message strips the trailing sentinel text so toasts read naturally:
// "email already in use: conflict" becomes "email already in use".
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, s := range []error{ErrNotFound, ErrConflict, ErrValidation, ErrForbidden, ErrUnauthorized, ErrInsufficientStock} {
		if errors.Is(err, s) {
			trimmed := strings.TrimSuffix(msg, ": "+s.Error())
			if trimmed != msg && trimmed != "" {
				return trimmed
			}
		}
	}
	return msg
}
