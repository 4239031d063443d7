package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemRepository is an in-memory implementation of Repository for tests
// and demos
type InMemRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
	byLogin  map[string]uuid.UUID
}

// NewInMemRepository creates a new in-memory account repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		accounts: make(map[uuid.UUID]Account),
		byLogin:  make(map[string]uuid.UUID),
	}
}

// CreateAccount creates a new account in the unverified status
func (r *InMemRepository) CreateAccount(ctx context.Context, login string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byLogin[login]; exists {
		return Account{}, ErrLoginTaken
	}

	now := time.Now().UTC()
	a := Account{
		ID:        uuid.New(),
		Login:     login,
		Status:    StatusUnverified,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.accounts[a.ID] = a
	r.byLogin[login] = a.ID
	return a, nil
}

// GetByID retrieves an account by its id
func (r *InMemRepository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

// GetByLogin retrieves an account by its login identifier
func (r *InMemRepository) GetByLogin(ctx context.Context, login string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byLogin[login]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return r.accounts[id], nil
}

// UpdateStatus updates the account status and reports the rows affected
func (r *InMemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return 0, nil
	}

	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	r.accounts[id] = a
	return 1, nil
}

// WithTx returns the repository itself; in-memory changes apply immediately
func (r *InMemRepository) WithTx(tx interface{}) Repository {
	return r
}
