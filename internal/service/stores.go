package service

import (
	"context"
	"time"

	"github.com/iliyamo/codementorx/internal/model"
)

// UserStore is the credential store.  Lookups by username and email ignore
// case.  Missing rows are reported as repository.ErrNotFound.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// Activate sets the active flag and the verified flag of the user's OTP
	// row together.
	Activate(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

// OTPStore holds the single OTP row of each user.
type OTPStore interface {
	Create(ctx context.Context, userID uint64, code string, createdAt time.Time) error
	GetByUser(ctx context.Context, userID uint64) (model.OTPVerification, error)
	Replace(ctx context.Context, userID uint64, code string, createdAt time.Time) error
}

// ResetTokenStore holds password reset tokens.  Redeem must flip the used
// flag with a compare-and-set and store the new password hash atomically:
// either both happen or neither does.
type ResetTokenStore interface {
	DeleteForUser(ctx context.Context, userID uint64) error
	Create(ctx context.Context, userID uint64, token string, createdAt time.Time) (uint64, error)
	GetByToken(ctx context.Context, token string) (model.PasswordResetToken, error)
	Redeem(ctx context.Context, id, userID uint64, hash string) (bool, error)
}

// RefreshStore persists hashed refresh tokens.
type RefreshStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string, now time.Time) error
}
