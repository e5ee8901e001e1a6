package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/codementorx/internal/middleware"
)

// getUserID extracts the user_id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
    if id, ok := c.Get(middleware.UserIDKey).(uint64); ok && id != 0 {
        return id, nil
    }
    return 0, errors.New("invalid user_id in context")
}

// bindAndValidate binds the JSON body into req and runs the echo validator.
// On failure it writes the 400 response itself and returns ok=false.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
    if err := c.Bind(req); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body."})
    }
    if err := c.Validate(req); err != nil {
        if fe := fieldErrors(err); fe != nil {
            return false, c.JSON(http.StatusBadRequest, echo.Map{"errors": fe})
        }
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    return true, nil
}

func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
    if d <= 0 {
        d = 5 * time.Second
    }
    return context.WithTimeout(c.Request().Context(), d)
}
