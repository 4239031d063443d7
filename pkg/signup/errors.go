package signup

import "errors"

var (
	// ErrRegistrationDisabled is returned when registration is turned off
	ErrRegistrationDisabled = errors.New("registration is disabled")

	// ErrAccountAwaitingVerification is returned when the login already has
	// an account that has not completed verification. The caller should
	// offer the resend path.
	ErrAccountAwaitingVerification = errors.New("account is awaiting verification")
)
