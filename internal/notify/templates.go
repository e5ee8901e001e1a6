package notify

import (
	"fmt"
	"net/url"
	"strings"
)

// Message is a rendered email.
type Message struct {
	Subject string
	Body    string
}

// Templates renders the account emails.  AppName is substituted for the
// product name; FrontendURL is the base of the reset link.
type Templates struct {
	AppName     string
	FrontendURL string
}

func (t Templates) SignupOTP(username, code string) Message {
	return Message{
		Subject: fmt.Sprintf("Verify Your Account - %s", t.AppName),
		Body: fmt.Sprintf(`Hello %s,

Thank you for signing up! Your OTP verification code is: %s

This OTP will expire in 10 minutes.

If you didn't create an account, please ignore this email.

Best regards,
%s Team
`, username, code, t.AppName),
	}
}

func (t Templates) ResendOTP(username, code string) Message {
	return Message{
		Subject: fmt.Sprintf("New OTP - %s", t.AppName),
		Body: fmt.Sprintf(`Hello %s,

Your new OTP verification code is: %s

This OTP will expire in 10 minutes.

Best regards,
%s Team
`, username, code, t.AppName),
	}
}

// ResetLink returns <FrontendURL>/reset-password?token=<token>.
func (t Templates) ResetLink(token string) string {
	return strings.TrimRight(t.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

func (t Templates) PasswordReset(username, token string) Message {
	return Message{
		Subject: fmt.Sprintf("Password Reset - %s", t.AppName),
		Body: fmt.Sprintf(`Hello %s,

You requested a password reset. Click the link below to reset your password:

%s

This link will expire in 1 hour.

If you didn't request this reset, please ignore this email.

Best regards,
%s Team
`, username, t.ResetLink(token), t.AppName),
	}
}

func (t Templates) PasswordResetDone(username string) Message {
	return Message{
		Subject: fmt.Sprintf("Password Reset Successful - %s", t.AppName),
		Body: fmt.Sprintf(`Hello %s,

Your password has been successfully reset.

If you didn't make this change, please contact our support team immediately.

Best regards,
%s Team
`, username, t.AppName),
	}
}
