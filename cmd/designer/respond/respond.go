// Package respond writes the JSON envelope every designer route uses:
// {"status":"success","data":...} or {"status":"error","message":"..."}.
// Handlers and middleware share it so the wire shape stays in one place.
package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/common/logger"
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Data writes a success envelope carrying a payload
func Data(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Status: "success", Data: data})
}

// Message writes a success envelope carrying only a message
func Message(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, envelope{Status: "success", Message: message})
}

// Fail writes an error envelope with an explicit status code
func Fail(c echo.Context, code int, message string) error {
	return c.JSON(code, envelope{Status: "error", Message: message})
}

// Error maps error kinds to HTTP status codes. Internal errors are
// logged and replaced with a generic message.
func Error(c echo.Context, log *logger.Logger, err error) error {
	var code int
	message := err.Error()

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		code = http.StatusNotFound
	case apperr.KindDenied:
		code = http.StatusForbidden
	case apperr.KindConflict:
		code = http.StatusConflict
	case apperr.KindAlreadyInState, apperr.KindInvalid:
		code = http.StatusBadRequest
	default:
		code = http.StatusInternalServerError
		message = "internal server error"
		log.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	return Fail(c, code, message)
}
