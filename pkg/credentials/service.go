package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tendant/simple-verify/pkg/account"
	"github.com/tendant/simple-verify/pkg/dbx"
)

// CredentialService checks and sets account passwords through the
// privilege-separated database functions. The pool it is constructed with
// belongs to the restricted application role: that role cannot select the
// password_hash column, only execute the two definer functions, so the raw
// hash never crosses into this process.
type CredentialService struct {
	db     dbx.DBTX
	hasher *Argon2Hasher
	fns    FunctionConfig
}

// NewCredentialService creates a credential service over the restricted
// role's pool
func NewCredentialService(db dbx.DBTX) *CredentialService {
	return NewCredentialServiceWithConfig(db, DefaultFunctionConfig())
}

// NewCredentialServiceWithConfig creates a credential service with custom
// function and table names
func NewCredentialServiceWithConfig(db dbx.DBTX, fns FunctionConfig) *CredentialService {
	return &CredentialService{
		db:     db,
		hasher: NewArgon2Hasher(),
		fns:    fns,
	}
}

// GetSalt returns the non-secret salt prefix of the stored hash for the
// account, via the definer function. Never the full hash.
func (s *CredentialService) GetSalt(ctx context.Context, accountID uuid.UUID) (string, error) {
	query := fmt.Sprintf(`SELECT %s($1)`, s.fns.getSalt())

	var salt *string
	err := s.db.QueryRow(ctx, query, accountID).Scan(&salt)
	if err != nil {
		return "", fmt.Errorf("failed to get salt: %w", err)
	}
	if salt == nil || *salt == "" {
		return "", ErrNoPassword
	}

	return *salt, nil
}

// ValidPasswordHash compares a caller-computed full hash against the stored
// one, via the definer function. Only a boolean comes back.
func (s *CredentialService) ValidPasswordHash(ctx context.Context, accountID uuid.UUID, hash string) (bool, error) {
	query := fmt.Sprintf(`SELECT %s($1, $2)`, s.fns.validHash())

	var valid *bool
	err := s.db.QueryRow(ctx, query, accountID, hash).Scan(&valid)
	if err != nil {
		return false, fmt.Errorf("failed to check password hash: %w", err)
	}
	if valid == nil {
		return false, ErrNoPassword
	}

	return *valid, nil
}

// VerifyPassword checks a candidate password for the account: fetch the
// salt prefix, recompute the full hash locally, and let the database
// compare
func (s *CredentialService) VerifyPassword(ctx context.Context, accountID uuid.UUID, password string) (bool, error) {
	salt, err := s.GetSalt(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNoPassword) {
			return false, ErrNoPassword
		}
		return false, err
	}

	computed, err := s.hasher.HashWithSaltPrefix(password, salt)
	if err != nil {
		return false, err
	}

	return s.ValidPasswordHash(ctx, accountID, computed)
}

// Authenticate verifies a password for an account that must be open.
// Unverified accounts cannot log in; the caller should offer the resend
// path instead.
func (s *CredentialService) Authenticate(ctx context.Context, acct account.Account, password string) (bool, error) {
	if !acct.IsOpen() {
		return false, ErrAccountNotOpen
	}

	return s.VerifyPassword(ctx, acct.ID, password)
}

// SetPassword stores a new password hash for the account. The restricted
// role holds INSERT/UPDATE/DELETE on the hash table, so writing does not
// need the definer functions. Update first, insert when no row existed.
func (s *CredentialService) SetPassword(ctx context.Context, accountID uuid.UUID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	update := fmt.Sprintf(`UPDATE %s SET password_hash = $2 WHERE account_id = $1`, s.fns.hashTable())
	tag, err := s.db.Exec(ctx, update, accountID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	insert := fmt.Sprintf(`INSERT INTO %s (account_id, password_hash) VALUES ($1, $2)`, s.fns.hashTable())
	if _, err := s.db.Exec(ctx, insert, accountID, hash); err != nil {
		return fmt.Errorf("failed to insert password hash: %w", err)
	}

	slog.Info("Password set", "account_id", accountID)
	return nil
}

// DeletePassword removes the password hash row for the account
func (s *CredentialService) DeletePassword(ctx context.Context, accountID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE account_id = $1`, s.fns.hashTable())
	if _, err := s.db.Exec(ctx, query, accountID); err != nil {
		return fmt.Errorf("failed to delete password hash: %w", err)
	}
	return nil
}

// HasPassword reports whether a password hash row exists for the account.
// Uses only the account_id column, which the restricted role may select.
func (s *CredentialService) HasPassword(ctx context.Context, accountID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`SELECT account_id FROM %s WHERE account_id = $1`, s.fns.hashTable())

	var id uuid.UUID
	err := s.db.QueryRow(ctx, query, accountID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
