package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/legacy-vault/internal/auth"
)

// RequireRole returns a middleware that enforces the resolved role stored in
// the JWT's "role" claim.  The combined "both" role satisfies any single
// required role, so requiring "user" admits "user" and "both" but never a
// beneficiary-only identity, and vice versa.  A missing or unknown role is
// rejected with 403.  It assumes JWTAuth has already stored the role in the
// context under "role".
func RequireRole(roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, _ := c.Get("role").(string)
			actual := auth.Role(v)
			for _, required := range roles {
				if actual.Satisfies(required) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}
