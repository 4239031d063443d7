package credentials

import "errors"

var (
	// ErrNoPassword is returned when no password hash exists for the account
	ErrNoPassword = errors.New("no password set for account")

	// ErrAccountNotOpen is returned when authenticating against an account
	// that has not completed verification (or is closed)
	ErrAccountNotOpen = errors.New("account is not open")
)
