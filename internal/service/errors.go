package service

import (
	"errors"
	"fmt"
)

// Error taxonomy of the account flows.  Handlers branch on these with
// errors.Is; the more specific errors below wrap one of them.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrExpired         = errors.New("expired")
	ErrInvalidCode     = errors.New("invalid code")
	ErrAlreadyUsed     = errors.New("already used")
	ErrDeliveryFailure = errors.New("delivery failure")
	ErrUnauthorized    = errors.New("unauthorized")
)

var (
	ErrUsernameTaken      = fmt.Errorf("%w: username already exists", ErrValidation)
	ErrEmailTaken         = fmt.Errorf("%w: email already exists", ErrValidation)
	ErrIdentityTaken      = fmt.Errorf("%w: username or email already exists", ErrValidation)
	ErrMissingFields      = fmt.Errorf("%w: username, email and password are required", ErrValidation)
	ErrPasswordTooShort   = fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, MinPasswordLength)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	ErrNotVerified        = fmt.Errorf("%w: account not verified", ErrUnauthorized)
)

// MinPasswordLength applies to passwords chosen through the reset flow.
const MinPasswordLength = 6

func deliveryFailure(err error) error {
	return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
}
