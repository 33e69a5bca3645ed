package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/veriscribe/signature-api/internal/api/middleware"
	"github.com/veriscribe/signature-api/internal/core/ports"
)

// AuthHandler exposes registration, login and session management.
type AuthHandler struct {
	auth    ports.AuthService
	users   ports.UserService
	session *middleware.Session
}

func NewAuthHandler(auth ports.AuthService, users ports.UserService, session *middleware.Session) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, session: session}
}

// Register godoc
// @Summary Create a new account
// @Description Registers a user and starts a session via an HttpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration payload"
// @Success 201 {object} authResponse
// @Failure 400 {object} errorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tok, user, err := h.auth.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	h.session.SetCookie(c, tok)
	return c.JSON(http.StatusCreated, authResponse{
		Message: "Registration successful",
		User:    toUserResponse(user),
	})
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login payload"
// @Param next query string false "Relative path to return to after login"
// @Success 200 {object} authResponse
// @Failure 401 {object} errorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tok, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.session.SetCookie(c, tok)

	resp := map[string]any{
		"message": "Login successful",
		"user":    toUserResponse(user),
	}
	if next := safeNext(c.QueryParam("next")); next != "" {
		resp["redirect"] = next
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary End the current session
// @Tags auth
// @Produce json
// @Success 200 {object} messageResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.session.ClearCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// Status godoc
// @Summary Report whether the caller holds a valid session
// @Description Never fails: anonymous callers get authenticated=false.
// @Tags auth
// @Produce json
// @Success 200 {object} statusResponse
// @Router /api/auth/status [get]
func (h *AuthHandler) Status(c echo.Context) error {
	claims := optionalClaims(c)
	if claims == nil {
		return c.JSON(http.StatusOK, statusResponse{Authenticated: false})
	}

	user, _, err := h.users.Profile(c.Request().Context(), claims.UserID)
	if err != nil {
		// The account vanished between middleware check and lookup.
		h.session.ClearCookie(c)
		return c.JSON(http.StatusOK, statusResponse{Authenticated: false})
	}

	resp := toUserResponse(user)
	return c.JSON(http.StatusOK, statusResponse{Authenticated: true, User: &resp})
}

// InvalidateSessions godoc
// @Summary Revoke every session for the calling user
// @Description Bumps the session epoch so all outstanding tokens, including
// @Description the caller's own, are rejected from now on.
// @Tags auth
// @Produce json
// @Success 200 {object} messageResponse
// @Failure 401 {object} errorResponse
// @Router /api/auth/invalidate-sessions [post]
func (h *AuthHandler) InvalidateSessions(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	if err := h.auth.InvalidateAllSessions(c.Request().Context(), claims.UserID); err != nil {
		return err
	}

	h.session.ClearCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "All sessions invalidated. Please log in again."})
}

// safeNext admits only same-origin relative paths so login can never be used
// as an open redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	if strings.ContainsAny(next, "\\\r\n") {
		return ""
	}
	return next
}
