// Package middleware provides shared request processing for handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"librarydesk/internal/auth"
	"librarydesk/internal/model"
)

// Context keys set by RequireSession.
const (
	ContextSession   = "session"
	ContextPrincipal = "principal"
)

// sessionID pulls the opaque session id from the request.  Clients
// send either "Authorization: Bearer <id>" or "X-Session-Id: <id>".
func sessionID(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(c.Request().Header.Get("X-Session-Id"))
}

// RequireSession resolves the caller's session and stores the session
// and its principal in the request context.  Missing or expired
// sessions fail with 401.
func RequireSession(store auth.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := sessionID(c)
			if id == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"error":   "Session required",
				})
			}
			s, err := store.Get(c.Request().Context(), id)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"error":   "Session expired or invalid",
				})
			}
			c.Set(ContextSession, s)
			c.Set(ContextPrincipal, s.Principal)
			return next(c)
		}
	}
}

// CurrentPrincipal returns the principal stored by RequireSession,
// or nil when the route is unauthenticated.
func CurrentPrincipal(c echo.Context) *model.Principal {
	if v, ok := c.Get(ContextPrincipal).(model.Principal); ok {
		return &v
	}
	return nil
}
