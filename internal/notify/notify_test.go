package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/codementorx/internal/config"
)

func TestTemplates(t *testing.T) {
	tpl := Templates{AppName: "MentorX", FrontendURL: "https://app.example.com/"}

	m := tpl.SignupOTP("alice", "012345")
	assert.Equal(t, "Verify Your Account - MentorX", m.Subject)
	assert.Contains(t, m.Body, "Hello alice,")
	assert.Contains(t, m.Body, "Your OTP verification code is: 012345")

	m = tpl.ResendOTP("alice", "654321")
	assert.Equal(t, "New OTP - MentorX", m.Subject)
	assert.Contains(t, m.Body, "654321")

	m = tpl.PasswordReset("alice", "tok-1")
	assert.Equal(t, "Password Reset - MentorX", m.Subject)
	assert.Contains(t, m.Body, "https://app.example.com/reset-password?token=tok-1")

	m = tpl.PasswordResetDone("alice")
	assert.Equal(t, "Password Reset Successful - MentorX", m.Subject)
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{SMTPHost: "mail.local", SMTPPort: 2525, From: "no-reply@x.com"})
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "Alice <a@x.com>", "Hi", "line1\nline2"))
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "no-reply@x.com", gotFrom)
	assert.Equal(t, []string{"a@x.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Hi\r\n")
	assert.True(t, strings.HasSuffix(string(gotMsg), "line1\r\nline2"))
}

func TestSMTPSender_Failures(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{SMTPHost: "mail.local", SMTPPort: 25})
	relay := errors.New("421 service not available")
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return relay }

	assert.ErrorIs(t, s.Send(context.Background(), "a@x.com", "s", "b"), relay)
	assert.ErrorIs(t, s.Send(context.Background(), "not-an-address", "s", "b"), ErrInvalidRecipient)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "a@x.com", "s", "b"), context.Canceled)
}

func TestBuildMessage_StripsHeaderInjection(t *testing.T) {
	msg := string(buildMessage("f@x.com", "t@x.com", "hi\r\nBcc: evil@x.com", "", time.Unix(0, 0)))
	assert.NotContains(t, msg, "\r\nBcc:")
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(nil)
	assert.NoError(t, s.Send(context.Background(), "a@x.com", "s", "b"))
	assert.ErrorIs(t, s.Send(context.Background(), "", "s", "b"), ErrInvalidRecipient)
}

func TestSenderFunc(t *testing.T) {
	called := false
	var s Sender = SenderFunc(func(context.Context, string, string, string) error { called = true; return nil })
	require.NoError(t, s.Send(context.Background(), "a@x.com", "s", "b"))
	assert.True(t, called)
}
