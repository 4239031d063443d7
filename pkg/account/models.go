package account

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle status of an account
type Status string

const (
	// StatusUnverified is the initial status of every newly created account
	StatusUnverified Status = "unverified"

	// StatusOpen is the status of an account whose owner has proven control
	// of the registered address
	StatusOpen Status = "open"

	// StatusClosed is the status of a deactivated account
	StatusClosed Status = "closed"
)

// Account represents an account row
type Account struct {
	ID        uuid.UUID
	Login     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen returns true if the account has completed verification
func (a Account) IsOpen() bool {
	return a.Status == StatusOpen
}
