package model

import "time"

// User represents an account row in the `users` table.  Username and email
// are unique ignoring case; a user stays inactive until its emailed OTP has
// been confirmed.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – login name, unique ignoring case.
//  Email        – address codes and links are sent to, unique ignoring case.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – flipped once by a successful OTP verification.
//  DateJoined   – timestamp of signup.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    IsActive     bool      // users.is_active
    DateJoined   time.Time // users.date_joined
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is handed to the client once; only its SHA‑256 hash is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
