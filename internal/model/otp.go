package model

import "time"

// OTPVerification is the single pending email code of a user
// (`otp_verifications`, one row per user).
type OTPVerification struct {
    UserID     uint64    // otp_verifications.user_id (unique)
    Code       string    // otp_verifications.otp, six ASCII digits
    CreatedAt  time.Time // otp_verifications.created_at, reset on resend
    IsVerified bool      // otp_verifications.is_verified
}

// ExpiresAt is the last instant at which the code is still accepted.
func (o OTPVerification) ExpiresAt(ttl time.Duration) time.Time {
    return o.CreatedAt.Add(ttl)
}

// Expired reports whether more than ttl has elapsed since the code was issued.
func (o OTPVerification) Expired(now time.Time, ttl time.Duration) bool {
    return now.After(o.ExpiresAt(ttl))
}
