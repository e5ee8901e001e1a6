package model

import "time"

// PasswordResetToken is a single-use credential authorising one password
// change (`password_reset_tokens`).  Validity is computed on read; expired
// rows are left in place.
type PasswordResetToken struct {
    ID        uint64    // password_reset_tokens.id
    UserID    uint64    // password_reset_tokens.user_id
    Token     string    // password_reset_tokens.token (unique)
    CreatedAt time.Time // password_reset_tokens.created_at
    IsUsed    bool      // password_reset_tokens.is_used
}

func (t PasswordResetToken) Expired(now time.Time, ttl time.Duration) bool {
    return now.After(t.CreatedAt.Add(ttl))
}
