package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	defaultSampleCount = 50
	maxSampleCount     = 500
	defaultSampleDays  = 90
	maxSampleDays      = 365
)

// DevHandler handles development-only endpoints.
// The server registers it only when the environment is development.
type DevHandler struct {
	transactionRepo repositories.TransactionRepositoryInterface
	generator       services.SampleDataGeneratorInterface
	now             func() time.Time
}

// NewDevHandler creates a new development handler
func NewDevHandler(
	transactionRepo repositories.TransactionRepositoryInterface,
	generator services.SampleDataGeneratorInterface,
) *DevHandler {
	return &DevHandler{
		transactionRepo: transactionRepo,
		generator:       generator,
		now:             time.Now,
	}
}

// GenerateSampleData fills the caller's ledger with generated history
//
// Method: POST /api/dev/sample-data
// Authentication: Required
// Environment: Development only
//
// Query parameters:
//   - count: Number of transactions to generate (default: 50, max: 500)
//   - days: Days of history to spread them over (default: 90, max: 365)
//   - templates: "true" also adds the recurring templates
//
// Success Response: 201 Created
//   - message, transactions_created, start, end
func (h *DevHandler) GenerateSampleData(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	count := clamp(getIntQueryParam(c, "count", defaultSampleCount), 1, maxSampleCount)
	days := clamp(getIntQueryParam(c, "days", defaultSampleDays), 1, maxSampleDays)

	today := ledger.DateOf(h.now().UTC())
	rows := h.generator.GenerateHistory(userID, today, days, count)
	if c.QueryParam("templates") == "true" {
		rows = append(rows, h.generator.GenerateTemplates(userID, today)...)
	}

	ctx := c.Request().Context()
	created := 0
	for _, row := range rows {
		if err := h.transactionRepo.Create(ctx, row); err != nil {
			slog.WarnContext(ctx, "Sample transaction skipped", "error", err)
			continue
		}
		created++
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":              "sample data generated",
		"transactions_created": created,
		"start":                today.AddDays(-days).String(),
		"end":                  today.String(),
	})
}

func getIntQueryParam(c echo.Context, key string, defaultValue int) int {
	valueStr := c.QueryParam(key)
	if valueStr == "" {
		return defaultValue
	}

	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return defaultValue
	}

	return value
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
