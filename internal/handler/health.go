package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// ServiceName is reported by the banner and health endpoints.
const ServiceName = "CODEMENTORX"

// Health is a plain liveness probe for load balancers.  It returns "ok"
// with HTTP 200.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Status reports the service as healthy in JSON.
func Status(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"status": "healthy", "service": ServiceName})
}

// Root is the service banner.
func Root(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "message":     ServiceName + " API is running! 🚀",
        "description": "AI-powered development assistant",
        "version":     "1.0.0",
        "endpoints":   []string{"/chat", "/modes", "/health"},
    })
}
