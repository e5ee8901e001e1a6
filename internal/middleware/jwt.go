package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/codementorx/internal/utils"
)

// UserIDKey is the context key holding the authenticated user id (uint64).
const UserIDKey = "user_id"

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the token's subject under UserIDKey.  The provided secret must match
// the one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication credentials were not provided."})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            // Signature, HS256, expiry and the access token type are all
            // checked by ParseAccessToken.
            uid, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Given token not valid for any token type"})
            }
            c.Set(UserIDKey, uid)
            return next(c)
        }
    }
}
