package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Failed
// workflow results also carry their kind, user message and reason.
type errorResponse struct {
	Error   string `json:"error"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		body := errorResponse{Error: msg}

		var re *domain.ResultError
		if errors.As(err, &re) {
			body.Result = re.Result.Kind.String()
			body.Message = re.Result.UserMessage()
			body.Reason = re.Result.Reason
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, domain.ErrAPIKeyMissing):
		return http.StatusForbidden, "api key not provisioned"
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, "authentication already in progress"
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrRemoteRejected):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrProvisioningFailed):
		return http.StatusFailedDependency, "account created but api key provisioning failed; sign in manually"
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, "identity service unreachable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
