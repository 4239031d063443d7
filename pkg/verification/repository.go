package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tendant/simple-verify/pkg/dbx"
)

// CreateStatus reports how CreateKeyIfAbsent resolved
type CreateStatus int

const (
	// KeyCreated means a new key row was inserted
	KeyCreated CreateStatus = iota

	// KeyAlreadyExists means an outstanding key was found (either before
	// inserting or by recovering from a concurrent insert) and its value
	// was reused
	KeyAlreadyExists
)

// CreateKeyResult carries the outcome of CreateKeyIfAbsent. Key always
// holds the live key value for the account regardless of which caller
// inserted it.
type CreateKeyResult struct {
	Status CreateStatus
	Key    string
}

// Repository is the verification key store. It owns the key table
// exclusively; no other component mutates the underlying rows.
type Repository interface {
	// CreateKeyIfAbsent persists the given key for the account unless one
	// already exists, in which case the existing key is returned. Safe
	// under concurrent callers: at most one key row per account survives
	// and every caller observes the same key value.
	CreateKeyIfAbsent(ctx context.Context, accountID uuid.UUID, key string) (CreateKeyResult, error)

	// GetKey returns the outstanding key for the account, or ErrKeyNotFound
	GetKey(ctx context.Context, accountID uuid.UUID) (string, error)

	// FindAccountIDByKey returns the account id whose outstanding key
	// equals the given value, or ErrKeyNotFound
	FindAccountIDByKey(ctx context.Context, key string) (uuid.UUID, error)

	// DeleteKey removes the key row for the account. Deleting an absent
	// key is not an error.
	DeleteKey(ctx context.Context, accountID uuid.UUID) error

	// WithTx returns a repository bound to the given transaction
	WithTx(tx interface{}) Repository
}

// TableConfig carries the configurable table and column names of the
// verification key store
type TableConfig struct {
	Table           string
	AccountIDColumn string
	KeyColumn       string
}

// DefaultTableConfig returns the default key table layout
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Table:           "account_verification_keys",
		AccountIDColumn: "account_id",
		KeyColumn:       "key",
	}
}

// PostgresRepository implements Repository using PostgreSQL. The unique
// constraint on the account id column is what enforces at-most-one key per
// account under concurrent creation.
type PostgresRepository struct {
	db     dbx.DBTX
	cfg    TableConfig
	table  string
	idCol  string
	keyCol string
}

// NewPostgresRepository creates a key store over the default table layout
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return NewPostgresRepositoryWithConfig(db, DefaultTableConfig())
}

// NewPostgresRepositoryWithConfig creates a key store with custom table and
// column names
func NewPostgresRepositoryWithConfig(db dbx.DBTX, cfg TableConfig) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		cfg:    cfg,
		table:  pgx.Identifier{cfg.Table}.Sanitize(),
		idCol:  pgx.Identifier{cfg.AccountIDColumn}.Sanitize(),
		keyCol: pgx.Identifier{cfg.KeyColumn}.Sanitize(),
	}
}

// CreateKeyIfAbsent persists the key unless one already exists. The insert
// path is optimistic: when a concurrent caller wins the unique constraint
// race, the winning row is re-read and its key value reused. If the re-read
// finds nothing either, the original violation is surfaced as a fatal
// storage error.
func (r *PostgresRepository) CreateKeyIfAbsent(ctx context.Context, accountID uuid.UUID, key string) (CreateKeyResult, error) {
	existing, err := r.GetKey(ctx, accountID)
	if err == nil {
		return CreateKeyResult{Status: KeyAlreadyExists, Key: existing}, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return CreateKeyResult{}, err
	}

	insert := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`, r.table, r.idCol, r.keyCol)
	_, err = r.db.Exec(ctx, insert, accountID, key)
	if err == nil {
		return CreateKeyResult{Status: KeyCreated, Key: key}, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return CreateKeyResult{}, fmt.Errorf("failed to insert verification key: %w", err)
	}

	// A concurrent caller inserted first. Recover by re-reading the
	// winning row rather than propagating the violation.
	winner, readErr := r.GetKey(ctx, accountID)
	if readErr != nil {
		slog.Error("Failed to re-read verification key after uniqueness violation",
			"account_id", accountID, "err", readErr)
		return CreateKeyResult{}, fmt.Errorf("verification key conflict not recoverable: %w", err)
	}

	return CreateKeyResult{Status: KeyAlreadyExists, Key: winner}, nil
}

// GetKey returns the outstanding key for the account
func (r *PostgresRepository) GetKey(ctx context.Context, accountID uuid.UUID) (string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, r.keyCol, r.table, r.idCol)

	var key string
	err := r.db.QueryRow(ctx, query, accountID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		return "", err
	}

	return key, nil
}

// FindAccountIDByKey returns the account id holding the given key
func (r *PostgresRepository) FindAccountIDByKey(ctx context.Context, key string) (uuid.UUID, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, r.idCol, r.table, r.keyCol)

	var accountID uuid.UUID
	err := r.db.QueryRow(ctx, query, key).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrKeyNotFound
		}
		return uuid.Nil, err
	}

	return accountID, nil
}

// DeleteKey removes the key row for the account. Idempotent: zero rows
// affected is fine.
func (r *PostgresRepository) DeleteKey(ctx context.Context, accountID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, r.table, r.idCol)

	_, err := r.db.Exec(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete verification key: %w", err)
	}

	return nil
}

// WithTx returns a repository bound to the given transaction
func (r *PostgresRepository) WithTx(tx interface{}) Repository {
	if tx == nil {
		return r
	}

	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		slog.Warn("Unsupported transaction type", "type", reflect.TypeOf(tx))
		return r
	}

	return NewPostgresRepositoryWithConfig(pgxTx, r.cfg)
}
