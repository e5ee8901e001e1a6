// Package notify delivers account emails: OTP codes, reset links and reset
// confirmations.  Delivery is synchronous from the caller's point of view and
// never retried; any error is reported back to the calling service.
package notify

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/codementorx/internal/logging"
)

// Sender delivers one message to one address.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, to, subject, body string) error

func (f SenderFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}

// ErrInvalidRecipient is returned before any network call when the address
// cannot be parsed.
var ErrInvalidRecipient = errors.New("notify: invalid recipient address")

func checkRecipient(to string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(to))
	if err != nil {
		return "", ErrInvalidRecipient
	}
	return addr.Address, nil
}

// LogSender writes messages to the logger instead of sending them.  It is
// meant for local development where no SMTP relay is available.
type LogSender struct {
	Log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender { return &LogSender{Log: logging.OrNop(log)} }

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	addr, err := checkRecipient(to)
	if err != nil {
		return err
	}
	s.Log.Info("mail (log transport)",
		zap.String("to", addr),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
