package verification

import "errors"

var (
	// ErrKeyNotFound is returned when no verification key matches the
	// presented token, or when the matching account is no longer awaiting
	// verification. The two causes are deliberately indistinguishable.
	ErrKeyNotFound = errors.New("no matching verification key")

	// ErrResendNotAllowed is returned for any resend request that cannot be
	// honored: unknown login, already-open account, or closed account.
	// A single generic error avoids leaking which logins exist.
	ErrResendNotAllowed = errors.New("unable to resend verification email")
)
