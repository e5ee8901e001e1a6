package middleware

// identity.go holds the caller lookup shared by the rate limiter and the
// response cache.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user id as a string, or "anon"
// when JWTAuth has not run or rejected the request.
func currentUserID(c echo.Context) string {
    if id, ok := c.Get(UserIDKey).(uint64); ok && id != 0 {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
