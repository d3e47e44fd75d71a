package handlers

import (
	"net/http"
	"strings"

	"github.com/jsiebens/memberd/internal/token"
	"github.com/labstack/echo/v4"
)

const identityContextKey = "memberd.identity"

// SessionAuth verifies the Bearer session token and makes the resolved
// identity available to the profile handlers.
func SessionAuth(issuer *token.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid authorization header")
			}

			identity, err := issuer.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}

			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

func currentIdentity(c echo.Context) *token.Identity {
	identity, _ := c.Get(identityContextKey).(*token.Identity)
	return identity
}
