package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

type RequestIDTestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (s *RequestIDTestSuite) SetupTest() {
	s.echo = echo.New()
}

func TestRequestIDTestSuite(t *testing.T) {
	suite.Run(t, new(RequestIDTestSuite))
}

func (s *RequestIDTestSuite) run(req *http.Request, inner echo.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Require().NoError(RequestID()(inner)(s.echo.NewContext(req, rec)))
	return rec
}

func (s *RequestIDTestSuite) TestRequestID_GeneratesUUID() {
	var traceID string
	rec := s.run(httptest.NewRequest(http.MethodGet, "/", nil), func(c echo.Context) error {
		traceID = GetTraceID(c)
		return c.NoContent(http.StatusOK)
	})

	s.Regexp(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, traceID)
	s.Equal(traceID, rec.Header().Get(TraceIDHeader))
}

func (s *RequestIDTestSuite) TestRequestID_UsesExistingTraceID() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "existing-trace-id-12345")

	rec := s.run(req, func(c echo.Context) error {
		s.Equal("existing-trace-id-12345", GetTraceID(c))
		s.Equal("existing-trace-id-12345", TraceIDFromContext(c.Request().Context()))
		return c.NoContent(http.StatusOK)
	})

	s.Equal("existing-trace-id-12345", rec.Header().Get(TraceIDHeader))
}

func (s *RequestIDTestSuite) TestGetTraceID_ReturnsEmptyWhenNotSet() {
	c := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	s.Empty(GetTraceID(c))
	s.Empty(TraceIDFromContext(context.Background()))
}

func (s *RequestIDTestSuite) TestTraceHandler_AddsTraceID() {
	var buf bytes.Buffer
	logger := slog.New(NewTraceHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

	logger.InfoContext(WithTraceID(context.Background(), "trace-abc"), "hello")

	var record map[string]any
	s.Require().NoError(json.Unmarshal(buf.Bytes(), &record))
	s.Equal("trace-abc", record["trace_id"])
	s.Equal("test", record["component"])
}

func (s *RequestIDTestSuite) TestTraceHandler_NoTraceID() {
	var buf bytes.Buffer
	logger := slog.New(NewTraceHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Info("hello")

	s.NotContains(buf.String(), "trace_id")
}
