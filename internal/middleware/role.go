package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole enforces that the session principal holds one of the
// given roles ("admin", "librarian", "member").  It assumes
// RequireSession ran earlier in the chain; requests with a missing or
// disallowed role are rejected with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := CurrentPrincipal(c)
			if p == nil || !allowed[p.Role] {
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"success": false,
					"error":   "Forbidden",
				})
			}
			return next(c)
		}
	}
}
