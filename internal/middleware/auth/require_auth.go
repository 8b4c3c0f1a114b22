// Package auth holds the bearer-token guard applied to protected routes.
package auth

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/edvlasov/blog-backend/internal/apperror"
	"github.com/edvlasov/blog-backend/internal/token"
)

const userIDKey = "userID"

// RequireAuth reads the authorization header, verifies the token and binds the
// resolved user id into the echo context. Failure is terminal for the request.
func RequireAuth(tokens *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(echo.HeaderAuthorization)
			if raw == "" {
				return apperror.NewMissingToken("auth token not found")
			}

			// clients send either the raw token or the Bearer form
			if after, ok := strings.CutPrefix(raw, "Bearer "); ok {
				raw = after
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				if errors.Is(err, token.ErrNoSubject) {
					return apperror.NewUnauthenticated("you are not logged in")
				}
				return apperror.NewInvalidToken("invalid or expired token", err)
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the id bound by RequireAuth.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(userIDKey).(uint)
	return id, ok
}
