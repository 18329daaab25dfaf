package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"farmportal/pkg/apperr"
	"farmportal/pkg/logger"
	"farmportal/pkg/session"
)

type errorView struct {
	Status  int
	Message string
}

// IsAPI reports whether the request is served by the JSON API.
func IsAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// ErrorHandler answers API requests with the JSON error body and page
// requests with the error page.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	log = logger.OrNop(log)
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := http.StatusInternalServerError, "Something went wrong. Please try again."
		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			code = he.Code
			if he.Internal != nil {
				log.Warn("http error", zap.Int("status", code), zap.Error(he.Internal))
			}
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = fmt.Sprint(he.Message)
			}
		case apperr.Status(err) != http.StatusInternalServerError:
			code, msg = apperr.Status(err), apperr.Message(err)
		default:
			log.Error("unhandled error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else if IsAPI(c) {
			err = c.JSON(code, map[string]string{"error": msg})
		} else {
			v := View{Title: http.StatusText(code), Query: c.QueryParams(), Data: errorView{Status: code, Message: msg}}
			if p, ok := session.From(c); ok {
				v.User = &p
				v.Nav = navFor(p.Role, "")
			}
			err = c.Render(code, "error", v)
		}
		if err != nil {
			log.Error("write error response", zap.Error(err))
		}
	}
}
