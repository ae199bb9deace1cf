package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  services.AuthServiceInterface
	tokenService services.TokenServiceInterface
	metrics      services.MetricsRecorderInterface
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(
	authService services.AuthServiceInterface,
	tokenService services.TokenServiceInterface,
	metrics services.MetricsRecorderInterface,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenService: tokenService,
		metrics:      metrics,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Create an account. With enableMfa the response carries the TOTP secret and QR code, shown only once.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.AuthResponse "User created"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 or VALIDATION_006"
// @Failure 409 {object} errors.ErrorResponse "USER_001 - email already registered"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	resp, err := h.authService.Register(&req, getClientIP(c), c.Request().UserAgent())
	if err != nil {
		h.recordAuthEvent("register_failed")
		switch {
		case stderrors.Is(err, services.ErrUserAlreadyExists):
			return SendError(c, errors.UserAlreadyExists)
		case stderrors.Is(err, services.ErrWeakPassword):
			return SendError(c, errors.ValidationWeakPassword, errors.WithDetails(err.Error()))
		}
		return SendSystemError(c, err)
	}

	h.recordAuthEvent("register")
	return c.JSON(http.StatusCreated, resp)
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate with email and password. Accounts with MFA answer mfaRequired until a valid otp is sent.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Token issued, or MFA challenge"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 or AUTH_005"
// @Failure 403 {object} errors.ErrorResponse "AUTH_006 - account locked"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	resp, err := h.authService.Login(&req, getClientIP(c), c.Request().UserAgent())
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrMFARequired):
			h.recordAuthEvent("mfa_challenge")
			return c.JSON(http.StatusOK, services.MFAChallenge())
		case stderrors.Is(err, services.ErrAccountLocked):
			h.recordAuthEvent("login_locked")
			return SendError(c, errors.AuthAccountLocked)
		case stderrors.Is(err, services.ErrInvalidCredentials):
			h.recordAuthEvent("login_failed")
			return SendError(c, errors.AuthInvalidCredentials)
		case stderrors.Is(err, services.ErrInvalidMFACode):
			h.recordAuthEvent("login_failed")
			return SendError(c, errors.AuthInvalidMFACode)
		}
		return SendSystemError(c, err)
	}

	h.recordAuthEvent("login")
	return c.JSON(http.StatusOK, resp)
}

// Logout handles user logout
// @Summary Logout user
// @Description Revoke the bearer token until it would have expired
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.AuthResponse "Logout successful"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 or AUTH_004"
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return SendError(c, errors.AuthMissingToken)
	}

	accessToken, err := h.tokenService.ExtractTokenFromHeader(authHeader)
	if err != nil {
		return SendError(c, errors.AuthInvalidTokenFormat)
	}

	if err := h.authService.Logout(accessToken, getClientIP(c), c.Request().UserAgent()); err != nil {
		// The client drops its token either way.
		slog.WarnContext(c.Request().Context(), "Logout failed", "error", err)
	}

	h.recordAuthEvent("logout")
	return c.JSON(http.StatusOK, dto.AuthResponse{Success: true, Message: "Logged out"})
}

// RequestPasswordReset starts a password reset
// @Summary Request a password reset
// @Description Deliver a one-time reset token. The response is identical whether or not the email is registered.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.PasswordResetRequest true "Account email"
// @Success 200 {object} dto.AuthResponse "Reset requested"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /request-password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req dto.PasswordResetRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	if err := h.authService.RequestPasswordReset(c.Request().Context(), &req, getClientIP(c), c.Request().UserAgent()); err != nil {
		return SendSystemError(c, err)
	}

	h.recordAuthEvent("password_reset_requested")
	return c.JSON(http.StatusOK, dto.AuthResponse{Success: true, Message: services.MessageResetRequested})
}

// ResetPassword completes a password reset
// @Summary Reset password
// @Description Set a new password with a delivered reset token. A successful reset also unlocks the account.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.AuthResponse "Password reset"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 or VALIDATION_006"
// @Failure 401 {object} errors.ErrorResponse "AUTH_008 - unknown, expired or used token"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req dto.ResetPasswordRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(&req, getClientIP(c), c.Request().UserAgent()); err != nil {
		switch {
		case stderrors.Is(err, services.ErrInvalidResetToken):
			return SendError(c, errors.AuthInvalidResetToken)
		case stderrors.Is(err, services.ErrWeakPassword):
			return SendError(c, errors.ValidationWeakPassword, errors.WithDetails(err.Error()))
		}
		return SendSystemError(c, err)
	}

	h.recordAuthEvent("password_reset")
	return c.JSON(http.StatusOK, dto.AuthResponse{Success: true, Message: services.MessagePasswordReset})
}

func (h *AuthHandler) recordAuthEvent(eventType string) {
	h.metrics.IncrementCounter("authentication_event", map[string]string{"event_type": eventType})
}
