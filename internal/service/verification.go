package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/codementorx/internal/logging"
	"github.com/iliyamo/codementorx/internal/model"
	"github.com/iliyamo/codementorx/internal/notify"
	"github.com/iliyamo/codementorx/internal/repository"
	"github.com/iliyamo/codementorx/internal/utils"
)

// Verification runs signup → OTP issuance → OTP confirmation → activation.
//
// Per user the OTP row is Pending(code, ts) until a matching, unexpired
// code activates the account.  Resend replaces code and ts in place.  The
// verified flag is recorded but not consulted, so a code that already
// activated the account keeps verifying until it expires or is replaced.
type Verification struct {
	Users      UserStore
	OTPs       OTPStore
	Sender     notify.Sender
	Mail       notify.Templates
	Sessions   SessionIssuer
	OTPTTL     time.Duration
	BcryptCost int
	Log        *zap.Logger

	Now         func() time.Time
	GenerateOTP func() (string, error)
}

func NewVerification(users UserStore, otps OTPStore, sender notify.Sender, mail notify.Templates,
	sessions SessionIssuer, otpTTL time.Duration, bcryptCost int, log *zap.Logger) *Verification {
	return &Verification{
		Users:       users,
		OTPs:        otps,
		Sender:      sender,
		Mail:        mail,
		Sessions:    sessions,
		OTPTTL:      otpTTL,
		BcryptCost:  bcryptCost,
		Log:         logging.OrNop(log),
		Now:         time.Now,
		GenerateOTP: utils.GenerateOTP,
	}
}

// Signup creates an inactive user and emails it a fresh OTP.  If the email
// cannot be delivered the user is deleted again and ErrDeliveryFailure is
// returned.
func (v *Verification) Signup(ctx context.Context, username, email, password string) (uint64, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return 0, ErrMissingFields
	}

	if taken, err := v.Users.UsernameExists(ctx, username); err != nil {
		return 0, err
	} else if taken {
		return 0, ErrUsernameTaken
	}
	if taken, err := v.Users.EmailExists(ctx, email); err != nil {
		return 0, err
	} else if taken {
		return 0, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password, v.BcryptCost)
	if err != nil {
		return 0, err
	}
	now := v.Now().UTC()
	userID, err := v.Users.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     false,
		DateJoined:   now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent signup for the same identity
			return 0, ErrIdentityTaken
		}
		return 0, err
	}

	code, err := v.GenerateOTP()
	if err == nil {
		err = v.OTPs.Create(ctx, userID, code, now)
	}
	if err != nil {
		v.rollbackSignup(ctx, userID)
		return 0, err
	}

	msg := v.Mail.SignupOTP(username, code)
	if err := v.Sender.Send(ctx, email, msg.Subject, msg.Body); err != nil {
		v.Log.Warn("signup: verification email failed, removing user",
			zap.Uint64("user_id", userID), zap.Error(err))
		v.rollbackSignup(ctx, userID)
		return 0, deliveryFailure(err)
	}

	v.Log.Info("signup: user created", zap.Uint64("user_id", userID))
	return userID, nil
}

func (v *Verification) rollbackSignup(ctx context.Context, userID uint64) {
	if err := v.Users.Delete(context.WithoutCancel(ctx), userID); err != nil {
		v.Log.Error("signup: rollback failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
}

// Verify checks code against the user's OTP and, when it matches within the
// OTP lifetime, activates the account and returns a new session.
func (v *Verification) Verify(ctx context.Context, userID uint64, code string) (Session, error) {
	user, otp, err := v.load(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	if otp.Expired(v.Now(), v.OTPTTL) {
		return Session{}, ErrExpired
	}
	if otp.Code != code {
		return Session{}, ErrInvalidCode
	}

	if err := v.Users.Activate(ctx, userID); err != nil {
		return Session{}, err
	}
	user.IsActive = true

	v.Log.Info("verify: account activated", zap.Uint64("user_id", userID))
	return v.Sessions.Issue(ctx, user)
}

// Resend replaces the user's code and timestamp and emails the new code.
// The replacement is kept even when delivery fails.
func (v *Verification) Resend(ctx context.Context, userID uint64) error {
	user, _, err := v.load(ctx, userID)
	if err != nil {
		return err
	}
	code, err := v.GenerateOTP()
	if err != nil {
		return err
	}
	if err := v.OTPs.Replace(ctx, userID, code, v.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	msg := v.Mail.ResendOTP(user.Username, code)
	if err := v.Sender.Send(ctx, user.Email, msg.Subject, msg.Body); err != nil {
		v.Log.Warn("resend: email failed", zap.Uint64("user_id", userID), zap.Error(err))
		return deliveryFailure(err)
	}
	return nil
}

func (v *Verification) load(ctx context.Context, userID uint64) (model.User, model.OTPVerification, error) {
	user, err := v.Users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, model.OTPVerification{}, notFound(err)
	}
	otp, err := v.OTPs.GetByUser(ctx, userID)
	if err != nil {
		return model.User{}, model.OTPVerification{}, notFound(err)
	}
	return user, otp, nil
}

// notFound maps a store miss onto ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
