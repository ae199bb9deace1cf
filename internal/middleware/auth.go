package middleware

import (
	stderrors "errors"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Context keys set by RequireAuth
const (
	UserEmailContextKey = "user_email"
	TokenJTIContextKey  = "token_jti"
)

// RequireAuth creates a middleware that requires a valid access token that
// has not been revoked by a logout
func RequireAuth(tokenService services.TokenServiceInterface, blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return handlers.SendError(c, errors.AuthMissingToken)
			}

			token, err := tokenService.ExtractTokenFromHeader(authHeader)
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			claims, err := tokenService.ValidateAccessToken(token)
			if err != nil {
				if stderrors.Is(err, services.ErrExpiredToken) {
					return handlers.SendError(c, errors.AuthExpiredToken)
				}
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			revoked, err := blacklistedTokenRepo.GetByJTI(claims.ID)
			switch {
			case err == nil && revoked != nil:
				return handlers.SendError(c, errors.AuthRevokedToken)
			case err != nil && !stderrors.Is(err, repositories.ErrTokenNotFound):
				// lookup failures fail closed
				return handlers.SendSystemError(c, err)
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Invalid user ID in token"))
			}

			c.Set(handlers.UserIDContextKey, userID)
			c.Set(UserEmailContextKey, claims.Email)
			c.Set(TokenJTIContextKey, claims.ID)

			return next(c)
		}
	}
}
