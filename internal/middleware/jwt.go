package middleware // middleware contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the resolved identity claims into the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers
// downstream read the identity via c.Get("role"), c.Get("email"),
// c.Get("user_id") and c.Get("beneficiary_id"); the id keys are absent when
// the email does not exist in the corresponding pool.
//
// The claims are trusted as issued: role changes after token issuance only
// become visible at refresh or re-login.  Anything link-sensitive (which
// account-holders a beneficiary may read) is recomputed from storage per
// request instead of being carried in the token.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer <jwt>"; anything else is a 401.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with the HS256 secret; reject foreign signing methods.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set("role", claims["role"])
			c.Set("email", claims["email"])
			if v, ok := claims["user_id"]; ok {
				c.Set("user_id", v)
			}
			if v, ok := claims["beneficiary_id"]; ok {
				c.Set("beneficiary_id", v)
			}
			return next(c)
		}
	}
}
