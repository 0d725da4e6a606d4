package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

const (
	ContextAccessToken = "access_token"
	ContextAPIKey      = "api_key"
)

// SessionReader exposes the current session of the workflow.
type SessionReader interface {
	Session() (domain.Session, bool)
}

// RequireSession rejects requests while the workflow is anonymous with
// domain.ErrNotAuthenticated and injects the session credentials into the
// echo context.
func RequireSession(sessions SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := sessions.Session()
			if !ok {
				return domain.ErrNotAuthenticated
			}

			c.Set(ContextAccessToken, sess.AccessToken)
			c.Set(ContextAPIKey, sess.APIKey)

			return next(c)
		}
	}
}
