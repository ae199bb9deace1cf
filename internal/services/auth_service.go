package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrMFARequired        = errors.New("multi-factor authentication code required")
	ErrInvalidMFACode     = errors.New("invalid authentication code")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrWeakPassword       = errors.New("password does not meet requirements")
)

const (
	msgRegistered    = "Registration successful"
	msgRegisteredMFA = "Registration successful. Scan the QR code with your authenticator app"
	msgLoggedIn      = "Login successful"
	msgMFARequired   = "Enter the code from your authenticator app"

	// MessageResetRequested is returned whether or not the email is registered
	MessageResetRequested = "If an account exists for this email, a reset link has been sent"
	MessagePasswordReset  = "Password has been reset"
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo             repositories.UserRepositoryInterface
	resetTokenRepo       repositories.PasswordResetTokenRepositoryInterface
	auditRepo            repositories.AuditLogRepositoryInterface
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	passwordService      PasswordServiceInterface
	tokenService         TokenServiceInterface
	mfaService           MFAServiceInterface
	notifier             NotifierInterface
	security             config.SecurityConfig
	logger               *slog.Logger
	now                  func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	resetTokenRepo repositories.PasswordResetTokenRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	passwordService PasswordServiceInterface,
	tokenService TokenServiceInterface,
	mfaService MFAServiceInterface,
	notifier NotifierInterface,
	security config.SecurityConfig,
	logger *slog.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:             userRepo,
		resetTokenRepo:       resetTokenRepo,
		auditRepo:            auditRepo,
		blacklistedTokenRepo: blacklistedTokenRepo,
		passwordService:      passwordService,
		tokenService:         tokenService,
		mfaService:           mfaService,
		notifier:             notifier,
		security:             security,
		logger:               logger,
		now:                  time.Now,
	}
}

// Register creates a new user. With EnableMFA the response carries the
// enrollment secret and QR code; they are never returned again.
func (s *AuthService) Register(req *dto.RegisterRequest, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existingUser, err := s.userRepo.GetByEmail(email)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		s.auditFailedRegistration(email, ipAddress, userAgent, "email_already_exists")
		return nil, ErrUserAlreadyExists
	}

	if err := s.passwordService.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}

	hashedPassword, err := s.passwordService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
	}

	var enrollment *dto.MFAEnrollment
	if req.EnableMFA {
		enrollment, err = s.mfaService.Enroll(email)
		if err != nil {
			return nil, fmt.Errorf("failed to enroll mfa: %w", err)
		}
		user.MFAEnabled = true
		user.MFASecret = enrollment.SealedSecret
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.createAuditLog(&user.ID, models.AuditActionRegister, user.ID.String(), ipAddress, userAgent,
		map[string]interface{}{"mfa_enabled": user.MFAEnabled})

	resp := &dto.AuthResponse{
		Success: true,
		Message: msgRegistered,
		User:    identity(user),
	}
	if enrollment != nil {
		resp.Message = msgRegisteredMFA
		resp.QRCode = enrollment.QRCode
		resp.Secret = enrollment.Secret
	}
	return resp, nil
}

// Login checks the password and, for MFA accounts, the one-time code. Failed
// passwords and failed codes both count towards the lockout.
func (s *AuthService) Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	now := s.now()

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.auditFailedLogin(nil, email, ipAddress, userAgent, "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsLocked(now, s.security.LockoutDuration) {
		s.auditFailedLogin(&user.ID, email, ipAddress, userAgent, "account_locked")
		return nil, ErrAccountLocked
	}
	if user.LockedAt != nil {
		// lockout elapsed, the attempt counter starts over
		user.Unlock()
	}

	if !s.passwordService.ComparePassword(req.Password, user.PasswordHash) {
		s.recordFailedAttempt(user, now, ipAddress, userAgent, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if req.OTP == "" {
			s.createAuditLog(&user.ID, models.AuditActionMFAChallenge, user.ID.String(), ipAddress, userAgent, nil)
			return nil, ErrMFARequired
		}
		ok, err := s.mfaService.Verify(user.MFASecret, req.OTP)
		if err != nil {
			return nil, fmt.Errorf("failed to verify mfa code: %w", err)
		}
		if !ok {
			s.recordFailedAttempt(user, now, ipAddress, userAgent, "invalid_mfa_code")
			return nil, ErrInvalidMFACode
		}
	}

	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		s.logger.Warn("failed to record last login",
			"error", err,
			"user_id", user.ID)
	}

	token, _, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.createAuditLog(&user.ID, models.AuditActionLogin, user.ID.String(), ipAddress, userAgent, nil)

	return &dto.AuthResponse{
		Success: true,
		Message: msgLoggedIn,
		Token:   token,
		User:    identity(user),
	}, nil
}

// MFAChallenge is the response body for ErrMFARequired
func MFAChallenge() *dto.AuthResponse {
	return &dto.AuthResponse{Success: false, MFARequired: true, Message: msgMFARequired}
}

// Logout revokes the access token until it would have expired. Tokens that no
// longer validate are already unusable and are ignored.
func (s *AuthService) Logout(accessToken, ipAddress, userAgent string) error {
	claims, err := s.tokenService.ValidateAccessToken(accessToken)
	if err != nil {
		s.logger.Debug("logout with unusable token", "error", err)
		return nil
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	expiry, err := s.tokenService.GetTokenExpiry(accessToken)
	if err != nil {
		expiry = s.now().Add(24 * time.Hour)
	}

	if err := s.blacklistedTokenRepo.Create(&models.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    userID,
		ExpiresAt: expiry,
	}); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	s.createAuditLog(&userID, models.AuditActionLogout, userID.String(), ipAddress, userAgent, nil)
	return nil
}

// RequestPasswordReset issues a single-use token and hands it to the notifier.
// Unknown emails succeed silently so the endpoint cannot be used to probe
// for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req *dto.PasswordResetRequest, ipAddress, userAgent string) error {
	email := normalizeEmail(req.Email)
	now := s.now()

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.passwordService.GenerateResetToken()
	if err != nil {
		return err
	}

	if err := s.resetTokenRepo.RevokeAllForUser(user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke previous reset tokens",
			"error", err,
			"user_id", user.ID)
	}

	expiresAt := now.Add(s.security.PasswordResetTTL)
	if err := s.resetTokenRepo.Create(&models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: models.HashResetToken(token),
		ExpiresAt: expiresAt,
	}); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.notifier.PasswordResetRequested(ctx, user.Email, token, expiresAt); err != nil {
		s.logger.ErrorContext(ctx, "failed to deliver password reset token",
			"error", err,
			"user_id", user.ID)
	}

	s.createAuditLog(&user.ID, models.AuditActionPasswordResetRequest, user.ID.String(), ipAddress, userAgent, nil)
	return nil
}

// ResetPassword consumes a reset token and sets the new password. A reset
// also lifts any lockout.
func (s *AuthService) ResetPassword(req *dto.ResetPasswordRequest, ipAddress, userAgent string) error {
	now := s.now()

	stored, err := s.resetTokenRepo.GetByTokenHash(models.HashResetToken(req.Token))
	if err != nil {
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get reset token: %w", err)
	}
	if !stored.IsValid(now) {
		return ErrInvalidResetToken
	}

	if err := s.passwordService.ValidatePassword(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}
	hashedPassword, err := s.passwordService.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.resetTokenRepo.MarkUsed(stored.ID, now); err != nil {
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(stored.UserID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resetTokenRepo.RevokeAllForUser(stored.UserID, now); err != nil {
		s.logger.Warn("failed to revoke remaining reset tokens",
			"error", err,
			"user_id", stored.UserID)
	}

	s.createAuditLog(&stored.UserID, models.AuditActionPasswordReset, stored.UserID.String(), ipAddress, userAgent, nil)
	return nil
}

func (s *AuthService) recordFailedAttempt(user *models.User, now time.Time, ipAddress, userAgent, reason string) {
	locked := user.IncrementFailedAttempts(now, s.security.MaxFailedAttempts)
	if err := s.userRepo.UpdateFailedLoginAttempts(user); err != nil {
		// never surfaced: the caller answers with a generic credentials error
		s.logger.Error("failed to update login attempts",
			"error", err,
			"user_id", user.ID)
	}

	if locked {
		s.createAuditLog(&user.ID, models.AuditActionAccountLocked, user.ID.String(), ipAddress, userAgent,
			map[string]interface{}{"failed_attempts": user.FailedLoginAttempts})
	}
	s.auditFailedLogin(&user.ID, user.Email, ipAddress, userAgent, reason)
}

func (s *AuthService) auditFailedRegistration(email, ipAddress, userAgent, reason string) {
	s.createAuditLog(nil, models.AuditActionRegister, "", ipAddress, userAgent, map[string]interface{}{
		"email":  email,
		"reason": reason,
	})
}

func (s *AuthService) auditFailedLogin(userID *uuid.UUID, email, ipAddress, userAgent, reason string) {
	resourceID := ""
	if userID != nil {
		resourceID = userID.String()
	}
	s.createAuditLog(userID, models.AuditActionFailedLogin, resourceID, ipAddress, userAgent, map[string]interface{}{
		"email":  email,
		"reason": reason,
	})
}

func (s *AuthService) createAuditLog(userID *uuid.UUID, action, resourceID, ipAddress, userAgent string, metadata map[string]interface{}) {
	log := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   models.AuditResourceUser,
		ResourceID: resourceID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Metadata:   metadata,
	}

	if err := s.auditRepo.Create(log); err != nil {
		s.logger.Error("failed to create audit log",
			"error", err,
			"action", action,
			"resource_id", resourceID)
	}
}

func identity(user *models.User) *dto.UserIdentity {
	return &dto.UserIdentity{ID: user.ID.String(), Email: user.Email}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
