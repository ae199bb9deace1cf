package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-tracker/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

type PanicRecoveryTestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (s *PanicRecoveryTestSuite) SetupTest() {
	s.echo = echo.New()
}

func TestPanicRecoveryTestSuite(t *testing.T) {
	suite.Run(t, new(PanicRecoveryTestSuite))
}

func (s *PanicRecoveryTestSuite) serve(traceID string, inner echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/api/transactions", nil), rec)
	if traceID != "" {
		c.Set(TraceIDContextKey, traceID)
	}

	var err error
	s.NotPanics(func() { err = PanicRecovery()(inner)(c) })
	return rec, err
}

func (s *PanicRecoveryTestSuite) TestPanicRecovery_RecoverFromPanic() {
	rec, err := s.serve("test-trace-id", func(c echo.Context) error {
		panic("test panic")
	})

	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)

	var errorResponse errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errorResponse))
	s.Equal("SYSTEM_001", errorResponse.Error.Code)
	s.Equal("test-trace-id", errorResponse.Error.TraceID)
}

func (s *PanicRecoveryTestSuite) TestPanicRecovery_NoTraceID() {
	rec, _ := s.serve("", func(c echo.Context) error {
		panic(fmt.Errorf("nil map write"))
	})

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Contains(rec.Body.String(), `"trace_id":"unknown"`)
}

func (s *PanicRecoveryTestSuite) TestPanicRecovery_NormalFlow() {
	rec, err := s.serve("test-trace-id", okHandler)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *PanicRecoveryTestSuite) TestPanicRecovery_AfterCommit() {
	rec, err := s.serve("test-trace-id", func(c echo.Context) error {
		_ = c.String(http.StatusOK, "partial")
		panic("late panic")
	})

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("partial", rec.Body.String())
}
