package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/repositories/repository_mocks"
	"finance-tracker/internal/services"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestAuthMiddleware(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

type AuthMiddlewareSuite struct {
	suite.Suite
	ctrl                     *gomock.Controller
	tokenService             services.TokenServiceInterface
	mockBlacklistedTokenRepo *repository_mocks.MockBlacklistedTokenRepositoryInterface
	e                        *echo.Echo
	user                     *models.User
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.tokenService = s.createTokenService(time.Hour)
	s.mockBlacklistedTokenRepo = repository_mocks.NewMockBlacklistedTokenRepositoryInterface(s.ctrl)
	s.e = echo.New()
	s.user = &models.User{ID: uuid.New(), Email: "test@example.com"}
}

func (s *AuthMiddlewareSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuthMiddlewareSuite) createTokenService(ttl time.Duration) services.TokenServiceInterface {
	privateKey, publicKey, err := config.GenerateRSAKeyPair()
	s.Require().NoError(err)

	return services.NewTokenService(&config.JWTConfig{
		PrivateKey:          privateKey,
		PublicKey:           publicKey,
		Issuer:              "test-issuer",
		AccessTokenDuration: ttl,
	})
}

func (s *AuthMiddlewareSuite) serve(mw echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	handler := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()

	// SendError writes the response and returns nil
	s.Require().NoError(handler(s.e.NewContext(req, rec)))
	return rec
}

func (s *AuthMiddlewareSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var resp errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func (s *AuthMiddlewareSuite) TestRequireAuth_ValidToken() {
	token, _, err := s.tokenService.GenerateAccessToken(s.user)
	s.Require().NoError(err)
	jti, err := s.tokenService.GetJTI(token)
	s.Require().NoError(err)

	s.mockBlacklistedTokenRepo.EXPECT().GetByJTI(jti).Return(nil, repositories.ErrTokenNotFound)

	mw := RequireAuth(s.tokenService, s.mockBlacklistedTokenRepo)
	handler := mw(func(c echo.Context) error {
		s.Equal(s.user.ID, c.Get(handlers.UserIDContextKey))
		s.Equal(s.user.Email, c.Get(UserEmailContextKey))
		s.Equal(jti, c.Get(TokenJTIContextKey))
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()

	s.Require().NoError(handler(s.e.NewContext(req, rec)))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AuthMiddlewareSuite) TestRequireAuth_MissingAuthorizationHeader() {
	rec := s.serve(RequireAuth(s.tokenService, s.mockBlacklistedTokenRepo), "")

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthMissingToken), s.errorCode(rec))
}

func (s *AuthMiddlewareSuite) TestRequireAuth_InvalidTokenFormat() {
	rec := s.serve(RequireAuth(s.tokenService, s.mockBlacklistedTokenRepo), "InvalidToken")

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthInvalidTokenFormat), s.errorCode(rec))
}

func (s *AuthMiddlewareSuite) TestRequireAuth_MalformedJWT() {
	rec := s.serve(RequireAuth(s.tokenService, s.mockBlacklistedTokenRepo), "Bearer invalid.jwt.token")

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthInvalidTokenFormat), s.errorCode(rec))
}

func (s *AuthMiddlewareSuite) TestRequireAuth_ExpiredToken() {
	short := s.createTokenService(time.Millisecond)
	token, _, err := short.GenerateAccessToken(s.user)
	s.Require().NoError(err)

	// jwt expiry has second granularity
	time.Sleep(1100 * time.Millisecond)

	rec := s.serve(RequireAuth(short, s.mockBlacklistedTokenRepo), "Bearer "+token)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthExpiredToken), s.errorCode(rec))
}

func (s *AuthMiddlewareSuite) TestRequireAuth_TokenSignedWithDifferentKey() {
	other := s.createTokenService(time.Hour)
	token, _, err := other.GenerateAccessToken(s.user)
	s.Require().NoError(err)

	rec := s.serve(RequireAuth(s.tokenService, s.mockBlacklistedTokenRepo), "Bearer "+token)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AuthMiddlewareSuite) TestRequireAuth_RevokedToken() {
	token, _, err := s.tokenService.GenerateAccessToken(s.user)
	s.Require().NoError(err)

	s.mockBlacklistedTokenRepo.EXPECT().
		GetByJTI(gomock.Any()).
		Return(&models.BlacklistedToken{UserID: s.user.ID, ExpiresAt: time.Now().Add(time.Hour)}, nil)

	rec := s.serve(RequireAuth(s.tokenService, s.mockBlacklistedTokenRepo), "Bearer "+token)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthRevokedToken), s.errorCode(rec))
}

func (s *AuthMiddlewareSuite) TestRequireAuth_BlacklistLookupFails() {
	token, _, err := s.tokenService.GenerateAccessToken(s.user)
	s.Require().NoError(err)

	s.mockBlacklistedTokenRepo.EXPECT().
		GetByJTI(gomock.Any()).
		Return(nil, fmt.Errorf("connection refused"))

	rec := s.serve(RequireAuth(s.tokenService, s.mockBlacklistedTokenRepo), "Bearer "+token)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal(string(errors.SystemInternalError), s.errorCode(rec))
}
