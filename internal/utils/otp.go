package utils

import (
    "crypto/rand"
    "fmt"
    "math/big"
)

const otpDigits = 6

var otpSpace = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly random 6-digit numeric code.  Leading
// zeros are kept so the code is always exactly six ASCII digits.
func GenerateOTP() (string, error) {
    n, err := rand.Int(rand.Reader, otpSpace)
    if err != nil {
        return "", err
    }
    return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// IsOTPFormat reports whether s looks like a code GenerateOTP could produce.
func IsOTPFormat(s string) bool {
    if len(s) != otpDigits {
        return false
    }
    for i := 0; i < len(s); i++ {
        if s[i] < '0' || s[i] > '9' {
            return false
        }
    }
    return true
}
