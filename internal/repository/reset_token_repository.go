package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/codementorx/internal/model"
)

// ResetTokenRepo persists password reset tokens.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// DeleteForUser removes every reset token the user holds.
func (r *ResetTokenRepo) DeleteForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE user_id=?", userID)
	return err
}

// Create inserts a fresh unused token and returns its row id.
func (r *ResetTokenRepo) Create(ctx context.Context, userID uint64, token string, createdAt time.Time) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token, created_at, is_used) VALUES (?,?,?,?)",
		userID, token, createdAt.UTC(), false)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByToken looks a token up by its exact value.
func (r *ResetTokenRepo) GetByToken(ctx context.Context, token string) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,token,created_at,is_used FROM password_reset_tokens WHERE token=? LIMIT 1",
		token).Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.IsUsed)
	return t, translate(err)
}

// Redeem claims token id and writes the owner's new password hash in one
// transaction.  It returns false, with nothing changed, when the token was
// already used.  A failed password write leaves the token unused.
func (r *ResetTokenRepo) Redeem(ctx context.Context, id, userID uint64, hash string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE password_reset_tokens SET is_used=? WHERE id=? AND is_used=?", true, id, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n != 1 {
		return false, nil
	}

	res, err = tx.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, userID)
	if err != nil {
		return false, err
	}
	// A fresh bcrypt hash always differs from the stored one, so a present
	// user row always counts as affected.
	if n, err = res.RowsAffected(); err != nil {
		return false, err
	}
	if n != 1 {
		return false, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
