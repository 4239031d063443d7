package verification

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemRepository is an in-memory key store for tests and demos. It
// provides the same at-most-one-key-per-account guarantee as the postgres
// implementation, using a mutex instead of a unique constraint.
type InMemRepository struct {
	mu   sync.Mutex
	keys map[uuid.UUID]string
}

// NewInMemRepository creates a new in-memory key store
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		keys: make(map[uuid.UUID]string),
	}
}

// CreateKeyIfAbsent persists the key unless one already exists
func (r *InMemRepository) CreateKeyIfAbsent(ctx context.Context, accountID uuid.UUID, key string) (CreateKeyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.keys[accountID]; ok {
		return CreateKeyResult{Status: KeyAlreadyExists, Key: existing}, nil
	}

	r.keys[accountID] = key
	return CreateKeyResult{Status: KeyCreated, Key: key}, nil
}

// GetKey returns the outstanding key for the account
func (r *InMemRepository) GetKey(ctx context.Context, accountID uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[accountID]
	if !ok {
		return "", ErrKeyNotFound
	}
	return key, nil
}

// FindAccountIDByKey returns the account id holding the given key
func (r *InMemRepository) FindAccountIDByKey(ctx context.Context, key string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, k := range r.keys {
		if k == key {
			return id, nil
		}
	}
	return uuid.Nil, ErrKeyNotFound
}

// DeleteKey removes the key row for the account, idempotently
func (r *InMemRepository) DeleteKey(ctx context.Context, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.keys, accountID)
	return nil
}

// WithTx returns the repository itself; in-memory changes apply immediately
func (r *InMemRepository) WithTx(tx interface{}) Repository {
	return r
}
