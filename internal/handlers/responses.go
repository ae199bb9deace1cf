package handlers

import (
	"log/slog"
	"net/http"

	"finance-tracker/internal/errors"

	"github.com/labstack/echo/v4"
)

// Handlers report failures through two helpers:
//
//   - SendError for client and business errors (4xx). The HTTP status comes
//     from the error code, e.g. SendError(c, errors.TransactionNotFound).
//   - SendSystemError for repository and unexpected service errors (500).
//     The client sees a generic message; the cause is only logged.
//
// Request validation errors are returned as-is and rendered by the
// middleware error handler.

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// ErrorResponse is an alias for the standardized error response type
type ErrorResponse = errors.ErrorResponse

func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	errorResponse := errors.NewErrorResponse(code, getTraceID(c), opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendSystemError hides err behind a generic message and logs it
func SendSystemError(c echo.Context, err error) error {
	errorResponse, cause := errors.WrapSystemError(err, getTraceID(c))
	slog.ErrorContext(c.Request().Context(), "Internal error",
		"trace_id", errorResponse.Error.TraceID,
		"path", c.Request().URL.Path,
		"error", cause)
	return c.JSON(http.StatusInternalServerError, errorResponse)
}
