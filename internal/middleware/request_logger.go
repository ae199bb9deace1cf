package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// RequestLogger logs one line per request and records request metrics.
// It runs after the error handler so the logged status is the one sent.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			duration := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			httpRequestsTotal.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(route, req.Method).Observe(duration.Seconds())

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			}
			slog.Log(req.Context(), level, "HTTP request",
				"method", req.Method,
				"path", req.URL.Path,
				"route", route,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"client_ip", c.RealIP(),
				"bytes_out", c.Response().Size,
			)

			// already handled
			return nil
		}
	}
}
