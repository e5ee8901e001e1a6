package router // package router defines how HTTP routes are registered for the API

import (
    "net/http"

    "github.com/labstack/echo/v4"                   // import the Echo web framework to handle routing
    echomw "github.com/labstack/echo/v4/middleware" // CORS, recovery and request logging
    "go.uber.org/zap"

    "github.com/iliyamo/codementorx/internal/config"
    "github.com/iliyamo/codementorx/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/codementorx/internal/middleware" // JWT authentication, rate limiting and caching
)

// New returns an Echo instance with the validator and the global middleware
// (recovery, request log, CORS) installed.  Routes are added by the Register
// functions below.
func New(cors config.CORSConfig, log *zap.Logger) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.Validator = handler.NewRequestValidator()

    e.Use(echomw.Recover())
    e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogURI:      true,
        LogStatus:   true,
        LogMethod:   true,
        LogLatency:  true,
        LogRemoteIP: true,
        LogError:    true,
        HandleError: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            fields := []zap.Field{
                zap.String("method", v.Method),
                zap.String("uri", v.URI),
                zap.Int("status", v.Status),
                zap.Duration("latency", v.Latency),
                zap.String("remote_ip", v.RemoteIP),
            }
            if v.Error != nil {
                log.Error("request", append(fields, zap.Error(v.Error))...)
                return nil
            }
            log.Info("request", fields...)
            return nil
        },
    }))
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins:     cors.AllowOrigins,
        AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
        AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
        AllowCredentials: true,
    }))
    return e
}

// RegisterRoutes registers the unauthenticated service endpoints: banner,
// JSON health and the load-balancer probe.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/", handler.Root)
    e.GET("/health", handler.Status)
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints.  The public ones sit behind
// the rate limiter; /user-profile/ requires a bearer token and is cached per
// user.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit, cache echo.MiddlewareFunc) {
    e.POST("/signup/", a.Signup, limit)
    e.POST("/verify-otp/", a.VerifyOTP, limit)
    e.POST("/resend-otp/", a.ResendOTP, limit)
    e.POST("/login/", a.Login, limit)
    e.POST("/forgot-password/", a.ForgotPassword, limit)
    e.POST("/reset-password/", a.ResetPassword, limit)
    e.POST("/token/refresh/", a.TokenRefresh, limit)
    e.POST("/logout/", a.Logout, limit)

    // JWTAuth must run before the cache so the cache key sees the user.
    e.GET("/user-profile/", a.UserProfile, middleware.JWTAuth(jwtSecret), cache)
}

// RegisterChat registers the assistant endpoints.
func RegisterChat(e *echo.Echo, h *handler.ChatHandler) {
    e.POST("/chat", h.Chat)
    e.GET("/modes", h.Modes)
}
