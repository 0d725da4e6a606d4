package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/holidaze/venue-auth/internal/api/middleware"
	"github.com/holidaze/venue-auth/internal/core/domain"
	"github.com/holidaze/venue-auth/internal/core/ports"
)

// AuthHandler exposes the workflow to the local front end.
type AuthHandler struct {
	workflow ports.AuthWorkflow
}

func NewAuthHandler(workflow ports.AuthWorkflow) *AuthHandler {
	return &AuthHandler{workflow: workflow}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

type sessionView struct {
	State         string `json:"state"`
	Authenticated bool   `json:"authenticated"`
	HasAPIKey     bool   `json:"has_api_key"`
}

type resultResponse struct {
	Result  string       `json:"result"`
	Session *sessionView `json:"session,omitempty"`
}

type venueHeadersResponse struct {
	Authorization string `json:"Authorization"`
	APIKey        string `json:"X-Noroff-API-Key"`
}

func (h *AuthHandler) view() *sessionView {
	sess, ok := h.workflow.Session()
	return &sessionView{
		State:         string(h.workflow.State()),
		Authenticated: ok,
		HasAPIKey:     sess.HasAPIKey(),
	}
}

// render writes a successful result. Failures are returned as
// *domain.ResultError and rendered by the HTTP error handler.
func (h *AuthHandler) render(c echo.Context, res domain.WorkflowResult) error {
	if err := res.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resultResponse{Result: res.Kind.String(), Session: h.view()})
}

// SignIn authenticates with email and password.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  resultResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res := h.workflow.SignIn(c.Request().Context(), domain.Credentials{Email: req.Email, Password: req.Password})
	return h.render(c, res)
}

// SignUp registers a venue manager and provisions its API key.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Registration form"
// @Success      200   {object}  resultResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      424   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res := h.workflow.SignUp(c.Request().Context(), domain.RegistrationProfile{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
	})
	return h.render(c, res)
}

// Logout clears the session. It always succeeds from the caller's point of
// view; a storage failure is reported by the error handler.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Failure      500   {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.workflow.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session reports the current state for rendering.
//
// @Summary      Current session state
// @Tags         auth
// @Produce      json
// @Success      200   {object}  sessionView
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, h.view())
}

// VenueHeaders returns the headers the front end attaches to venue
// management requests. Requires a provisioned session.
//
// @Summary      Venue API headers
// @Tags         auth
// @Produce      json
// @Success      200   {object}  venueHeadersResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/venue-headers [get]
func (h *AuthHandler) VenueHeaders(c echo.Context) error {
	token, _ := c.Get(middleware.ContextAccessToken).(string)
	key, _ := c.Get(middleware.ContextAPIKey).(string)
	return c.JSON(http.StatusOK, venueHeadersResponse{
		Authorization: "Bearer " + token,
		APIKey:        key,
	})
}
