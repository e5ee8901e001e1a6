package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/codementorx/internal/logging"
	"github.com/iliyamo/codementorx/internal/notify"
	"github.com/iliyamo/codementorx/internal/repository"
	"github.com/iliyamo/codementorx/internal/utils"
)

// Reset runs forgot-password → token issuance → redemption → password change.
// A token is Issued until redeemed; expiry is computed on read and expired
// rows stay in the table.
type Reset struct {
	Users      UserStore
	Tokens     ResetTokenStore
	Sender     notify.Sender
	Mail       notify.Templates
	TokenTTL   time.Duration
	BcryptCost int
	Log        *zap.Logger

	Now      func() time.Time
	NewToken func() string
}

func NewReset(users UserStore, tokens ResetTokenStore, sender notify.Sender, mail notify.Templates,
	tokenTTL time.Duration, bcryptCost int, log *zap.Logger) *Reset {
	return &Reset{
		Users:      users,
		Tokens:     tokens,
		Sender:     sender,
		Mail:       mail,
		TokenTTL:   tokenTTL,
		BcryptCost: bcryptCost,
		Log:        logging.OrNop(log),
		Now:        time.Now,
		NewToken:   uuid.NewString,
	}
}

// RequestReset issues a new token for the account owning email and mails
// the reset link.  An unknown email returns nil so callers cannot tell the
// two cases apart.  A delivery failure is returned but the token is kept.
func (r *Reset) RequestReset(ctx context.Context, email string) error {
	user, err := r.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.Log.Debug("reset: unknown email")
			return nil
		}
		return err
	}

	if err := r.Tokens.DeleteForUser(ctx, user.ID); err != nil {
		return err
	}
	token := r.NewToken()
	if _, err := r.Tokens.Create(ctx, user.ID, token, r.Now().UTC()); err != nil {
		return err
	}

	msg := r.Mail.PasswordReset(user.Username, token)
	if err := r.Sender.Send(ctx, user.Email, msg.Subject, msg.Body); err != nil {
		r.Log.Warn("reset: email failed", zap.Uint64("user_id", user.ID), zap.Error(err))
		return deliveryFailure(err)
	}
	return nil
}

// Redeem sets newPassword on the token's owner.  The token claim and the
// password write commit together, so concurrent redemptions of one token
// cannot both succeed and a failed write leaves the token redeemable.  The
// confirmation email is best effort.
func (r *Reset) Redeem(ctx context.Context, token, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	t, err := r.Tokens.GetByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return notFound(err)
	}
	if t.Expired(r.Now(), r.TokenTTL) {
		return ErrExpired
	}
	if t.IsUsed {
		return ErrAlreadyUsed
	}

	user, err := r.Users.GetByID(ctx, t.UserID)
	if err != nil {
		return notFound(err)
	}
	hash, err := utils.HashPassword(newPassword, r.BcryptCost)
	if err != nil {
		return err
	}

	won, err := r.Tokens.Redeem(ctx, t.ID, user.ID, hash)
	if err != nil {
		return notFound(err)
	}
	if !won {
		return ErrAlreadyUsed
	}
	r.Log.Info("reset: password changed", zap.Uint64("user_id", user.ID))

	msg := r.Mail.PasswordResetDone(user.Username)
	if err := r.Sender.Send(ctx, user.Email, msg.Subject, msg.Body); err != nil {
		r.Log.Warn("reset: confirmation email failed", zap.Uint64("user_id", user.ID), zap.Error(err))
	}
	return nil
}
