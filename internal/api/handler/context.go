package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriscribe/signature-api/internal/api/middleware"
	"github.com/veriscribe/signature-api/internal/core/token"
)

// sessionClaims extracts the verified identity the session middleware stored
// on the request. Routes behind RequireSession always have it; calling this
// on an unguarded route is a programming error and surfaces as a 401.
func sessionClaims(c echo.Context) (*token.Claims, error) {
	claims, ok := c.Get(middleware.ClaimsKey).(*token.Claims)
	if !ok || claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required. Please log in.")
	}
	return claims, nil
}

// optionalClaims is sessionClaims for routes behind Optional: nil means the
// caller is anonymous.
func optionalClaims(c echo.Context) *token.Claims {
	claims, _ := c.Get(middleware.ClaimsKey).(*token.Claims)
	return claims
}
