package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/codementorx/internal/model"
)

// OTPRepo persists the one pending OTP row of each user.
type OTPRepo struct{ DB *sql.DB }

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db} }

// Create stores the first code issued at signup.
func (r *OTPRepo) Create(ctx context.Context, userID uint64, code string, createdAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO otp_verifications (user_id, otp, created_at, is_verified) VALUES (?,?,?,?)",
		userID, code, createdAt.UTC(), false)
	return translate(err)
}

// GetByUser returns the user's OTP row or ErrNotFound.
func (r *OTPRepo) GetByUser(ctx context.Context, userID uint64) (model.OTPVerification, error) {
	var o model.OTPVerification
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,otp,created_at,is_verified FROM otp_verifications WHERE user_id=? LIMIT 1",
		userID).Scan(&o.UserID, &o.Code, &o.CreatedAt, &o.IsVerified)
	return o, translate(err)
}

// Replace overwrites code and timestamp in place (resend).  The verified
// flag is left untouched.
func (r *OTPRepo) Replace(ctx context.Context, userID uint64, code string, createdAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE otp_verifications SET otp=?, created_at=? WHERE user_id=?",
		code, createdAt.UTC(), userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
