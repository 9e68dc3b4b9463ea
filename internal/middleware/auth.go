// Package middleware holds the echo middleware shared by the API routes.
package middleware

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"venuebook/internal/auth"
	apperrors "venuebook/internal/errors"
)

// ClaimsContextKey is where the validated token claims are stored.
const ClaimsContextKey = "claims"

var errTokenRevoked = errors.New("token revoked")

// JWT authenticates requests with a Bearer access token. Tokens revoked by
// logout are rejected.
func JWT(jwtService *auth.JWTService, store auth.TokenStoreInterface) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ClaimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				return nil, err
			}
			revoked, err := store.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err == nil && revoked {
				return nil, errTokenRevoked
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.NewHTTPError(http.StatusUnauthorized, "missing or invalid access token", "UNAUTHORIZED")
		},
	})
}

// ClaimsFromContext returns the claims stored by JWT, or nil on public routes.
func ClaimsFromContext(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsContextKey).(*auth.Claims)
	return claims
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// It must run after JWT.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := ClaimsFromContext(c)
		if claims == nil {
			return apperrors.NewHTTPError(http.StatusUnauthorized, "missing or invalid access token", "UNAUTHORIZED")
		}
		if !claims.IsAdmin() {
			return apperrors.NewHTTPError(http.StatusForbidden, "admin access required", "ADMIN_REQUIRED")
		}
		return next(c)
	}
}
