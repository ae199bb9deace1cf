package handlers

import (
	"context"
	"net/http"
	"time"

	"finance-tracker/internal/errors"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck is an extra dependency probe, e.g. the message broker
type HealthCheck func(ctx context.Context) error

// HealthCheckHandler handles the health check endpoint
type HealthCheckHandler struct {
	db     *gorm.DB
	checks map[string]HealthCheck
	now    func() time.Time
}

// NewHealthCheckHandler creates a new health check handler
func NewHealthCheckHandler(db *gorm.DB, checks map[string]HealthCheck) *HealthCheckHandler {
	return &HealthCheckHandler{db: db, checks: checks, now: time.Now}
}

// HealthCheck reports API and dependency status
// @Summary Health check
// @Description Check API, database and broker connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,time=string} "Service is healthy"
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003 - a dependency is unavailable"
// @Router /health [get]
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return h.unavailable(c, "Database connection failed")
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			return h.unavailable(c, name+" unavailable")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   h.now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthCheckHandler) unavailable(c echo.Context, detail string) error {
	errorResponse := errors.NewErrorResponse(
		errors.SystemServiceUnavailable,
		getTraceIDFromContext(c),
		errors.WithDetails(detail),
	)
	return c.JSON(http.StatusServiceUnavailable, errorResponse)
}

func getTraceIDFromContext(c echo.Context) string {
	traceID := c.Response().Header().Get("X-Trace-ID")
	if traceID == "" {
		traceID = getTraceID(c)
	}
	if traceID == "" {
		traceID = "unknown"
	}
	return traceID
}
