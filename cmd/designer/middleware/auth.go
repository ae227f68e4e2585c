package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/cmd/designer/respond"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// IdentityKey is the context key for the authenticated identity
	IdentityKey ContextKey = "identity"
)

// RequireIdentity extracts the authenticated identity supplied by the
// identity provider in front of this API (X-User-ID, X-User-Role) and
// stores it in the request context. Requests without an identity are
// rejected; credential validation itself happens upstream.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get("X-User-ID")
			if userID == "" {
				return respond.Fail(c, http.StatusUnauthorized, "authentication required")
			}

			role := c.Request().Header.Get("X-User-Role")
			if role != "admin" {
				role = "user"
			}

			c.Set(string(IdentityKey), models.Identity{
				UserID: userID,
				Role:   role,
			})

			return next(c)
		}
	}
}

// RequirePlatformAdmin gates catalog-management routes on the
// platform-level admin role
func RequirePlatformAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !GetIdentity(c).IsPlatformAdmin() {
				return respond.Fail(c, http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// GetIdentity retrieves the identity from the request context.
// Returns the zero identity if RequireIdentity did not run.
func GetIdentity(c echo.Context) models.Identity {
	ident, _ := c.Get(string(IdentityKey)).(models.Identity)
	return ident
}
