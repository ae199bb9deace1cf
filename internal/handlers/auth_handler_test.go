package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"
	"finance-tracker/internal/services/service_mocks"

	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestAuthHandler(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

type AuthHandlerSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	authService  *service_mocks.MockAuthServiceInterface
	tokenService *service_mocks.MockTokenServiceInterface
	metrics      *service_mocks.MockMetricsRecorderInterface
	handler      *AuthHandler
	e            *echo.Echo
}

func (s *AuthHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.authService = service_mocks.NewMockAuthServiceInterface(s.ctrl)
	s.tokenService = service_mocks.NewMockTokenServiceInterface(s.ctrl)
	s.metrics = service_mocks.NewMockMetricsRecorderInterface(s.ctrl)
	s.handler = NewAuthHandler(s.authService, s.tokenService, s.metrics)
	s.e = echo.New()
	s.e.Validator = NewValidator()
}

func (s *AuthHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuthHandlerSuite) post(path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return s.e.NewContext(req, rec), rec
}

func (s *AuthHandlerSuite) expectEvent(eventType string) {
	s.metrics.EXPECT().
		IncrementCounter("authentication_event", map[string]string{"event_type": eventType}).
		Times(1)
}

func (s *AuthHandlerSuite) decodeError(rec *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *AuthHandlerSuite) TestRegister_Success() {
	s.authService.EXPECT().
		Register(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(req *dto.RegisterRequest, _, _ string) (*dto.AuthResponse, error) {
			s.Equal("new@example.com", req.Email)
			s.True(req.EnableMFA)
			return &dto.AuthResponse{Success: true, Message: "Registered", Secret: "SECRET", QRCode: "data:image/png;base64,xyz"}, nil
		})
	s.expectEvent("register")

	c, rec := s.post("/register", `{"email":"new@example.com","password":"SecurePass123!","enableMfa":true}`)

	s.Require().NoError(s.handler.Register(c))
	s.Equal(http.StatusCreated, rec.Code)

	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal("SECRET", resp.Secret)
	s.NotEmpty(resp.QRCode)
}

func (s *AuthHandlerSuite) TestRegister_DuplicateEmail() {
	s.authService.EXPECT().
		Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, services.ErrUserAlreadyExists)
	s.expectEvent("register_failed")

	c, rec := s.post("/register", `{"email":"taken@example.com","password":"SecurePass123!"}`)

	s.Require().NoError(s.handler.Register(c))
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(string(errors.UserAlreadyExists), s.decodeError(rec).Error.Code)
}

func (s *AuthHandlerSuite) TestRegister_WeakPasswordRejectedByValidator() {
	c, _ := s.post("/register", `{"email":"new@example.com","password":"weak"}`)

	err := s.handler.Register(c)

	var verrs validator.ValidationErrors
	s.Require().ErrorAs(err, &verrs)
	s.Equal("password_policy", verrs[0].Tag())
}

func (s *AuthHandlerSuite) TestRegister_InvalidBody() {
	c, rec := s.post("/register", `{"email":`)

	s.Require().NoError(s.handler.Register(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(string(errors.ValidationGeneral), s.decodeError(rec).Error.Code)
}

func (s *AuthHandlerSuite) TestRegister_SystemError() {
	s.authService.EXPECT().
		Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("database down"))
	s.expectEvent("register_failed")

	c, rec := s.post("/register", `{"email":"new@example.com","password":"SecurePass123!"}`)

	s.Require().NoError(s.handler.Register(c))
	s.Equal(http.StatusInternalServerError, rec.Code)
	resp := s.decodeError(rec)
	s.Equal(string(errors.SystemInternalError), resp.Error.Code)
	s.NotContains(rec.Body.String(), "database down")
}

func (s *AuthHandlerSuite) TestLogin_Success() {
	userID := uuid.New()
	s.authService.EXPECT().
		Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&dto.AuthResponse{
			Success: true,
			Token:   "signed.jwt.token",
			User:    &dto.UserIdentity{ID: userID.String(), Email: "user@example.com"},
		}, nil)
	s.expectEvent("login")

	c, rec := s.post("/login", `{"email":"user@example.com","password":"SecurePass123!"}`)

	s.Require().NoError(s.handler.Login(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("signed.jwt.token", resp.Token)
	s.Equal(userID.String(), resp.User.ID)
}

func (s *AuthHandlerSuite) TestLogin_MFAChallenge() {
	s.authService.EXPECT().
		Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, services.ErrMFARequired)
	s.expectEvent("mfa_challenge")

	c, rec := s.post("/login", `{"email":"user@example.com","password":"SecurePass123!"}`)

	s.Require().NoError(s.handler.Login(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.False(resp.Success)
	s.True(resp.MFARequired)
	s.Empty(resp.Token)
}

func (s *AuthHandlerSuite) TestLogin_Failures() {
	tests := []struct {
		name       string
		err        error
		event      string
		wantStatus int
		wantCode   errors.ErrorCode
	}{
		{"bad credentials", services.ErrInvalidCredentials, "login_failed", http.StatusUnauthorized, errors.AuthInvalidCredentials},
		{"bad mfa code", services.ErrInvalidMFACode, "login_failed", http.StatusUnauthorized, errors.AuthInvalidMFACode},
		{"locked", services.ErrAccountLocked, "login_locked", http.StatusForbidden, errors.AuthAccountLocked},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.authService.EXPECT().
				Login(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, tt.err)
			s.expectEvent(tt.event)

			c, rec := s.post("/login", `{"email":"user@example.com","password":"whatever","otp":"123456"}`)

			s.Require().NoError(s.handler.Login(c))
			s.Equal(tt.wantStatus, rec.Code)
			s.Equal(string(tt.wantCode), s.decodeError(rec).Error.Code)
		})
	}
}

func (s *AuthHandlerSuite) TestLogin_MalformedOTP() {
	c, _ := s.post("/login", `{"email":"user@example.com","password":"SecurePass123!","otp":"12ab"}`)

	err := s.handler.Login(c)

	var verrs validator.ValidationErrors
	s.ErrorAs(err, &verrs)
}

func (s *AuthHandlerSuite) TestLogout() {
	s.tokenService.EXPECT().ExtractTokenFromHeader("Bearer abc.def.ghi").Return("abc.def.ghi", nil)
	s.authService.EXPECT().Logout("abc.def.ghi", gomock.Any(), gomock.Any()).Return(nil)
	s.expectEvent("logout")

	c, rec := s.post("/logout", "")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer abc.def.ghi")

	s.Require().NoError(s.handler.Logout(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AuthHandlerSuite) TestLogout_ServiceErrorStillSucceeds() {
	s.tokenService.EXPECT().ExtractTokenFromHeader(gomock.Any()).Return("abc.def.ghi", nil)
	s.authService.EXPECT().Logout(gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("blacklist insert failed"))
	s.expectEvent("logout")

	c, rec := s.post("/logout", "")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer abc.def.ghi")

	s.Require().NoError(s.handler.Logout(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AuthHandlerSuite) TestLogout_MissingHeader() {
	c, rec := s.post("/logout", "")

	s.Require().NoError(s.handler.Logout(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthMissingToken), s.decodeError(rec).Error.Code)
}

func (s *AuthHandlerSuite) TestLogout_BadScheme() {
	s.tokenService.EXPECT().ExtractTokenFromHeader("Basic abc").Return("", services.ErrInvalidAuthHeader)

	c, rec := s.post("/logout", "")
	c.Request().Header.Set(echo.HeaderAuthorization, "Basic abc")

	s.Require().NoError(s.handler.Logout(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthInvalidTokenFormat), s.decodeError(rec).Error.Code)
}

func (s *AuthHandlerSuite) TestRequestPasswordReset() {
	s.authService.EXPECT().
		RequestPasswordReset(gomock.Any(), &dto.PasswordResetRequest{Email: "user@example.com"}, gomock.Any(), gomock.Any()).
		Return(nil)
	s.expectEvent("password_reset_requested")

	c, rec := s.post("/request-password-reset", `{"email":"user@example.com"}`)

	s.Require().NoError(s.handler.RequestPasswordReset(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal(services.MessageResetRequested, resp.Message)
}

func (s *AuthHandlerSuite) TestRequestPasswordReset_InvalidEmail() {
	c, _ := s.post("/request-password-reset", `{"email":"not-an-email"}`)

	var verrs validator.ValidationErrors
	s.ErrorAs(s.handler.RequestPasswordReset(c), &verrs)
}

func (s *AuthHandlerSuite) TestResetPassword() {
	s.authService.EXPECT().
		ResetPassword(&dto.ResetPasswordRequest{Token: "reset-token", NewPassword: "NewSecure123!"}, gomock.Any(), gomock.Any()).
		Return(nil)
	s.expectEvent("password_reset")

	c, rec := s.post("/reset-password", `{"token":"reset-token","newPassword":"NewSecure123!"}`)

	s.Require().NoError(s.handler.ResetPassword(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AuthHandlerSuite) TestResetPassword_InvalidToken() {
	s.authService.EXPECT().
		ResetPassword(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(services.ErrInvalidResetToken)

	c, rec := s.post("/reset-password", `{"token":"used-token","newPassword":"NewSecure123!"}`)

	s.Require().NoError(s.handler.ResetPassword(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthInvalidResetToken), s.decodeError(rec).Error.Code)
}
