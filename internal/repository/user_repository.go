package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/codementorx/internal/model"
)

const userColumns = "id,username,email,password_hash,is_active,date_joined"

// UserRepo is the credential store backed by the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts the user and returns its ID.  Username and email are stored
// as given (trimmed); uniqueness is enforced ignoring case.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, is_active, date_joined) VALUES (?,?,?,?,?)",
		strings.TrimSpace(u.Username), strings.TrimSpace(u.Email), u.PasswordHash, u.IsActive, u.DateJoined.UTC())
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UsernameExists reports whether any user holds username, ignoring case.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", username)
}

// EmailExists reports whether any user holds email, ignoring case.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

func (r *UserRepo) exists(ctx context.Context, column, value string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM users WHERE LOWER(%s) = LOWER(?)", column),
		strings.TrimSpace(value)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByUsername fetches a user by username, ignoring case.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE LOWER(username)=LOWER(?) LIMIT 1",
		strings.TrimSpace(username)))
}

// GetByEmail fetches a user by email, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE LOWER(email)=LOWER(?) LIMIT 1",
		strings.TrimSpace(email)))
}

// Activate marks the account active and its OTP row verified in one
// transaction.  Activating an already active account succeeds.
func (r *UserRepo) Activate(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var found uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", id).Scan(&found); err != nil {
		return translate(err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", true, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE otp_verifications SET is_verified=? WHERE user_id=?", true, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the user together with its OTP, reset and refresh rows in
// one transaction.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		"DELETE FROM otp_verifications WHERE user_id=?",
		"DELETE FROM password_reset_tokens WHERE user_id=?",
		"DELETE FROM refresh_tokens WHERE user_id=?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.DateJoined)
	return u, translate(err)
}
