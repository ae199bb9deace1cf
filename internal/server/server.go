package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/database"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout      = 30 * time.Second
	tokenCleanupInterval = time.Hour
	bodyLimit            = "1M"
)

// Dependencies are the collaborators built by the caller. Notifier and
// Metrics default to a log notifier and a no-op recorder.
type Dependencies struct {
	Config       *config.Config
	DB           *database.DB
	Notifier     services.NotifierInterface
	Metrics      services.MetricsRecorderInterface
	HealthChecks map[string]handlers.HealthCheck
	Logger       *slog.Logger
}

// Server is the HTTP API together with its background jobs
type Server struct {
	echo       *echo.Echo
	cfg        *config.Config
	db         *database.DB
	limiter    *middleware.RateLimiter
	recurrence services.RecurrenceServiceInterface
	logger     *slog.Logger
}

func New(deps Dependencies) *Server {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = services.NewLogNotifier(logger, cfg.Security.ExposeResetTokens)
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	userRepo := repositories.NewUserRepository(deps.DB.DB)
	transactionRepo := repositories.NewTransactionRepository(deps.DB.DB)
	resetTokenRepo := repositories.NewPasswordResetTokenRepository(deps.DB.DB)
	blacklistedTokenRepo := repositories.NewBlacklistedTokenRepository(deps.DB.DB)
	auditRepo := repositories.NewAuditLogRepository(deps.DB.DB)

	passwordService := services.NewPasswordService(cfg.Security.BCryptCost)
	tokenService := services.NewTokenService(&cfg.JWT)
	mfaService := services.NewMFAService(&cfg.MFA)
	auditService := services.NewAuditService(auditRepo)
	authService := services.NewAuthService(
		userRepo,
		resetTokenRepo,
		auditRepo,
		blacklistedTokenRepo,
		passwordService,
		tokenService,
		mfaService,
		notifier,
		cfg.Security,
		logger,
	)
	transactionService := services.NewTransactionService(transactionRepo, auditService, notifier, metrics, logger)
	recurrenceService := services.NewRecurrenceService(
		transactionRepo, auditService, notifier, metrics, cfg.Recurrence.BatchSize, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitPerSecond, 2*cfg.Security.RateLimitPerSecond)

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, middleware.TraceIDHeader},
	}))
	e.Use(echomw.BodyLimit(bodyLimit))
	e.Use(limiter.Middleware())

	healthHandler := handlers.NewHealthCheckHandler(deps.DB.DB, deps.HealthChecks)
	authHandler := handlers.NewAuthHandler(authService, tokenService, metrics)
	transactionHandler := handlers.NewTransactionHandler(transactionService)

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.POST("/request-password-reset", authHandler.RequestPasswordReset)
	e.POST("/reset-password", authHandler.ResetPassword)
	e.POST("/logout", authHandler.Logout)

	api := e.Group("/api", middleware.RequireAuth(tokenService, blacklistedTokenRepo))
	api.GET("/transactions", transactionHandler.ListTransactions)
	api.POST("/transactions", transactionHandler.CreateTransaction)
	api.GET("/transactions/summary", transactionHandler.GetSummary)
	api.GET("/transactions/export", transactionHandler.ExportTransactions)
	api.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	if cfg.IsDevelopment() {
		devHandler := handlers.NewDevHandler(transactionRepo, services.NewSampleDataGenerator(0))
		api.POST("/dev/sample-data", devHandler.GenerateSampleData)
	}

	return &Server{
		echo:       e,
		cfg:        cfg,
		db:         deps.DB,
		limiter:    limiter,
		recurrence: recurrenceService,
		logger:     logger,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Recurrence is the server-side recurrence worker
func (s *Server) Recurrence() services.RecurrenceServiceInterface {
	return s.recurrence
}

// Run serves HTTP and runs the background jobs until ctx is cancelled, then
// shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", "addr", addr, "environment", s.cfg.Server.Environment)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		return s.echo.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		s.limiter.Run(ctx)
		return nil
	})

	g.Go(func() error {
		s.cleanupTokens(ctx)
		return nil
	})

	if s.cfg.Recurrence.WorkerEnabled {
		g.Go(func() error {
			return s.recurrence.Run(ctx, s.cfg.Recurrence.Interval)
		})
	}

	return g.Wait()
}

func (s *Server) cleanupTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.db.CleanupExpiredTokens(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "Expired token cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.InfoContext(ctx, "Removed expired tokens", "count", removed)
			}
		}
	}
}

type nopMetrics struct{}

func (nopMetrics) IncrementCounter(string, map[string]string)     {}
func (nopMetrics) RecordProcessingTime(string, time.Duration)     {}
func (nopMetrics) RecordGauge(string, float64, map[string]string) {}
