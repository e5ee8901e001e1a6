package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/codementorx/internal/logging"
    "github.com/iliyamo/codementorx/internal/model"
    "github.com/iliyamo/codementorx/internal/service"
)

// Verifier is the signup / OTP side of the account service.
type Verifier interface {
    Signup(ctx context.Context, username, email, password string) (uint64, error)
    Verify(ctx context.Context, userID uint64, code string) (service.Session, error)
    Resend(ctx context.Context, userID uint64) error
}

// Resetter is the forgot-password side of the account service.
type Resetter interface {
    RequestReset(ctx context.Context, email string) error
    Redeem(ctx context.Context, token, newPassword string) error
}

// AccountService covers login, profile and refresh-token handling.
type AccountService interface {
    Login(ctx context.Context, username, password string) (service.Session, error)
    Profile(ctx context.Context, userID uint64) (model.User, error)
    RefreshSession(ctx context.Context, raw string) (service.Session, error)
    Logout(ctx context.Context, raw string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Verify   Verifier
    Reset    Resetter
    Accounts AccountService
    Timeout  time.Duration // bound for the store and mail work of one request
    Log      *zap.Logger
}

func NewAuthHandler(v Verifier, r Resetter, a AccountService, timeout time.Duration, log *zap.Logger) *AuthHandler {
    return &AuthHandler{Verify: v, Reset: r, Accounts: a, Timeout: timeout, Log: logging.OrNop(log)}
}

// Response messages.
const (
    msgSignupOK       = "User created successfully. Please check your email for OTP verification."
    msgVerifyOK       = "Account verified successfully! You are now logged in."
    msgResendOK       = "New OTP sent successfully to your email!"
    msgLoginOK        = "Login successful!"
    msgForgotOK       = "If this email exists in our system, you will receive a password reset link."
    msgResetOK        = "Password reset successful! You can now login with your new password."
    msgUsernameTaken  = "Username already exists"
    msgEmailTaken     = "Email already exists"
    msgIdentityTaken  = "Username or email already exists"
    msgMissingFields  = "Username, email and password are required."
    msgSignupMail     = "Failed to send verification email. Please try again."
    msgOTPInvalid     = "Invalid OTP. Please check and try again."
    msgOTPExpired     = "OTP has expired. Please request a new one."
    msgVerifyNotFound = "Invalid verification request."
    msgResendNotFound = "Invalid request."
    msgResendMail     = "Failed to send email. Please try again."
    msgNotVerified    = "Account not verified. Please check your email for OTP."
    msgBadCredentials = "Invalid username or password."
    msgForgotMail     = "Failed to send password reset email. Please try again."
    msgResetExpired   = "Password reset token has expired. Please request a new one."
    msgResetUsed      = "This password reset token has already been used."
    msgResetNotFound  = "Invalid or expired password reset token."
    msgResetFailed    = "Failed to reset password. Please try again."
    msgPasswordShort  = "Password must be at least 6 characters long."
    msgRefreshInvalid = "Token is invalid or expired."
    msgInternal       = "Something went wrong. Please try again."
)

// ----- DTOs -----

// flexID accepts a user id sent either as a JSON number or a numeric string.
type flexID uint64

func (f *flexID) UnmarshalJSON(b []byte) error {
    s := strings.Trim(string(b), `"`)
    if s == "" || s == "null" {
        *f = 0
        return nil
    }
    n, err := strconv.ParseUint(s, 10, 64)
    if err != nil {
        return fmt.Errorf("user_id: %q is not a valid id", s)
    }
    *f = flexID(n)
    return nil
}

type signupReq struct {
    Username string `json:"username" validate:"required,max=150"`
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}
type verifyReq struct {
    UserID flexID `json:"user_id" validate:"required"`
    OTP    string `json:"otp" validate:"required"`
}
type resendReq struct {
    UserID flexID `json:"user_id" validate:"required"`
}
type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}
type forgotReq struct {
    Email string `json:"email" validate:"required,email"`
}
type resetReq struct {
    Token       string `json:"token" validate:"required,max=100"`
    NewPassword string `json:"new_password" validate:"required,min=6"`
}
type refreshReq struct {
    Refresh string `json:"refresh" validate:"required"`
}

type userPart struct {
    ID       uint64 `json:"id"`
    Username string `json:"username"`
    Email    string `json:"email"`
}
type sessionResp struct {
    Message string   `json:"message"`
    Access  string   `json:"access"`
    Refresh string   `json:"refresh"`
    User    userPart `json:"user"`
}
type profileResp struct {
    ID         uint64    `json:"id"`
    Username   string    `json:"username"`
    Email      string    `json:"email"`
    DateJoined time.Time `json:"date_joined"`
    IsVerified bool      `json:"is_verified"`
}

func sessionBody(msg string, s service.Session) sessionResp {
    return sessionResp{
        Message: msg,
        Access:  s.Access.Token,
        Refresh: s.Refresh.Raw,
        User:    userPart{ID: s.User.ID, Username: s.User.Username, Email: s.User.Email},
    }
}

func errJSON(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"error": msg})
}

// internal logs an unexpected error and answers 500 with msg.
func (h *AuthHandler) internal(c echo.Context, op string, err error, msg string) error {
    h.Log.Error(op, zap.Error(err), zap.String("path", c.Path()))
    return errJSON(c, http.StatusInternalServerError, msg)
}

// Signup: create an inactive user and email the OTP.
func (h *AuthHandler) Signup(c echo.Context) error {
    var req signupReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    id, err := h.Verify.Signup(ctx, req.Username, req.Email, req.Password)
    switch {
    case err == nil:
        return c.JSON(http.StatusCreated, echo.Map{"message": msgSignupOK, "user_id": id})
    case errors.Is(err, service.ErrUsernameTaken):
        return errJSON(c, http.StatusBadRequest, msgUsernameTaken)
    case errors.Is(err, service.ErrEmailTaken):
        return errJSON(c, http.StatusBadRequest, msgEmailTaken)
    case errors.Is(err, service.ErrIdentityTaken):
        return errJSON(c, http.StatusBadRequest, msgIdentityTaken)
    case errors.Is(err, service.ErrMissingFields):
        return errJSON(c, http.StatusBadRequest, msgMissingFields)
    case errors.Is(err, service.ErrDeliveryFailure):
        return errJSON(c, http.StatusInternalServerError, msgSignupMail)
    default:
        return h.internal(c, "signup", err, msgInternal)
    }
}

// VerifyOTP: activate the account and log the user in.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
    var req verifyReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    sess, err := h.Verify.Verify(ctx, uint64(req.UserID), req.OTP)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, sessionBody(msgVerifyOK, sess))
    case errors.Is(err, service.ErrNotFound):
        return errJSON(c, http.StatusBadRequest, msgVerifyNotFound)
    case errors.Is(err, service.ErrExpired):
        return errJSON(c, http.StatusBadRequest, msgOTPExpired)
    case errors.Is(err, service.ErrInvalidCode):
        return errJSON(c, http.StatusBadRequest, msgOTPInvalid)
    default:
        return h.internal(c, "verify otp", err, msgInternal)
    }
}

// ResendOTP: replace the code and email it again.
func (h *AuthHandler) ResendOTP(c echo.Context) error {
    var req resendReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    err := h.Verify.Resend(ctx, uint64(req.UserID))
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, echo.Map{"message": msgResendOK})
    case errors.Is(err, service.ErrNotFound):
        return errJSON(c, http.StatusBadRequest, msgResendNotFound)
    case errors.Is(err, service.ErrDeliveryFailure):
        return errJSON(c, http.StatusInternalServerError, msgResendMail)
    default:
        return h.internal(c, "resend otp", err, msgResendMail)
    }
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return errJSON(c, http.StatusBadRequest, "Invalid request body.")
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    sess, err := h.Accounts.Login(ctx, req.Username, req.Password)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, sessionBody(msgLoginOK, sess))
    case errors.Is(err, service.ErrNotVerified):
        return errJSON(c, http.StatusUnauthorized, msgNotVerified)
    case errors.Is(err, service.ErrUnauthorized):
        return errJSON(c, http.StatusUnauthorized, msgBadCredentials)
    default:
        return h.internal(c, "login", err, msgInternal)
    }
}

// UserProfile: protected, returns the caller's account.
func (h *AuthHandler) UserProfile(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return errJSON(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    u, err := h.Accounts.Profile(ctx, uid)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, profileResp{
            ID:         u.ID,
            Username:   u.Username,
            Email:      u.Email,
            DateJoined: u.DateJoined,
            IsVerified: u.IsActive,
        })
    case errors.Is(err, service.ErrNotFound):
        return errJSON(c, http.StatusNotFound, "User not found.")
    default:
        return h.internal(c, "user profile", err, msgInternal)
    }
}

// ForgotPassword answers identically whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req forgotReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    if err := h.Reset.RequestReset(ctx, strings.ToLower(req.Email)); err != nil {
        if errors.Is(err, service.ErrDeliveryFailure) {
            return errJSON(c, http.StatusInternalServerError, msgForgotMail)
        }
        return h.internal(c, "forgot password", err, msgForgotMail)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msgForgotOK})
}

// ResetPassword redeems a reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    err := h.Reset.Redeem(ctx, req.Token, req.NewPassword)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, echo.Map{"message": msgResetOK})
    case errors.Is(err, service.ErrPasswordTooShort):
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": map[string][]string{"new_password": {msgPasswordShort}}})
    case errors.Is(err, service.ErrNotFound):
        return errJSON(c, http.StatusBadRequest, msgResetNotFound)
    case errors.Is(err, service.ErrExpired):
        return errJSON(c, http.StatusBadRequest, msgResetExpired)
    case errors.Is(err, service.ErrAlreadyUsed):
        return errJSON(c, http.StatusBadRequest, msgResetUsed)
    default:
        return h.internal(c, "reset password", err, msgResetFailed)
    }
}

// TokenRefresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) TokenRefresh(c echo.Context) error {
    var req refreshReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    sess, err := h.Accounts.RefreshSession(ctx, req.Refresh)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, echo.Map{"access": sess.Access.Token, "refresh": sess.Refresh.Raw})
    case errors.Is(err, service.ErrUnauthorized):
        return errJSON(c, http.StatusUnauthorized, msgRefreshInvalid)
    default:
        return h.internal(c, "token refresh", err, msgInternal)
    }
}

// Logout revokes the refresh token in the body.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    err := h.Accounts.Logout(ctx, req.Refresh)
    switch {
    case err == nil:
        return c.NoContent(http.StatusNoContent)
    case errors.Is(err, service.ErrUnauthorized):
        return errJSON(c, http.StatusUnauthorized, msgRefreshInvalid)
    default:
        return h.internal(c, "logout", err, msgInternal)
    }
}
