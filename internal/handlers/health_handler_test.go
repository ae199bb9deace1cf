package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-tracker/internal/database"
	"finance-tracker/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db := database.SetupTestDB(t)
	e := echo.New()

	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
	}{
		{"database only", nil, http.StatusOK},
		{"healthy broker", map[string]HealthCheck{"broker": func(context.Context) error { return nil }}, http.StatusOK},
		{"broker down", map[string]HealthCheck{"broker": func(context.Context) error { return fmt.Errorf("closed") }}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthCheckHandler(db.DB, tt.checks)
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

			require.NoError(t, h.HealthCheck(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHealthCheck_DatabaseClosed(t *testing.T) {
	db := database.SetupTestDB(t)
	require.NoError(t, db.Close())

	h := NewHealthCheckHandler(db.DB, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	c.Set(TraceIDContextKey, "trace-123")

	require.NoError(t, h.HealthCheck(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.SystemServiceUnavailable), resp.Error.Code)
	assert.Equal(t, "trace-123", resp.Error.TraceID)
}
