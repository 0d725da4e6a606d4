package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

// RequireAPIKey allows only sessions that went through provisioning. Venue
// management calls need the API key, so sign-in-only sessions are refused.
// It must run after RequireSession. Refusals return domain.ErrAPIKeyMissing
// for the HTTP error handler to render.
func RequireAPIKey() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get(ContextAPIKey).(string)
			if key == "" {
				return domain.ErrAPIKeyMissing
			}
			return next(c)
		}
	}
}
