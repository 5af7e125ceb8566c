package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequireRole admits requests whose role, set by Auth, is one of roles.
// Anything else is answered 403 with denied as the error message.
func RequireRole(log zerolog.Logger, denied string, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if allowed[role] {
				return next(c)
			}
			log.Info().
				Interface("user_id", c.Get(CtxUserID)).
				Str("rol", role).
				Str("path", c.Path()).
				Msg("role not allowed")
			return c.JSON(http.StatusForbidden, map[string]string{"error": denied})
		}
	}
}
