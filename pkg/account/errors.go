package account

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches the lookup
	ErrAccountNotFound = errors.New("account not found")

	// ErrLoginTaken is returned when creating an account with a login that
	// already exists
	ErrLoginTaken = errors.New("login already taken")
)
