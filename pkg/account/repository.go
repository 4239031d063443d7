package account

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

// Repository defines the narrow account lifecycle operations consumed by
// the verification and signup services
type Repository interface {
	// CreateAccount creates a new account. New accounts always start in
	// the unverified status.
	CreateAccount(ctx context.Context, login string) (Account, error)

	// GetByID retrieves an account by its id
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)

	// GetByLogin retrieves an account by its public login identifier
	GetByLogin(ctx context.Context, login string) (Account, error)

	// UpdateStatus updates the account status and returns the number of
	// rows affected
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error)

	// WithTx returns a repository bound to the given transaction
	WithTx(tx interface{}) Repository
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository creates a new PostgreSQL-based account repository
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateAccount creates a new account in the unverified status
func (r *PostgresRepository) CreateAccount(ctx context.Context, login string) (Account, error) {
	query := `
		INSERT INTO accounts (login, status)
		VALUES ($1, $2)
		RETURNING id, login, status, created_at, updated_at
	`

	var a Account
	err := r.db.QueryRow(ctx, query, login, StatusUnverified).Scan(
		&a.ID,
		&a.Login,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrLoginTaken
		}
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return a, nil
}

// GetByID retrieves an account by its id
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	query := `
		SELECT id, login, status, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	return r.scanAccount(r.db.QueryRow(ctx, query, id))
}

// GetByLogin retrieves an account by its login identifier
func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (Account, error) {
	query := `
		SELECT id, login, status, created_at, updated_at
		FROM accounts
		WHERE login = $1
	`

	return r.scanAccount(r.db.QueryRow(ctx, query, login))
}

// UpdateStatus updates the account status and reports the rows affected.
// Callers that require the transition to have happened must check the
// count themselves.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error) {
	query := `
		UPDATE accounts
		SET status = $2,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return 0, fmt.Errorf("failed to update account status: %w", err)
	}

	return tag.RowsAffected(), nil
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

	return &PostgresRepository{db: pgxTx}
}

func (r *PostgresRepository) scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID,
		&a.Login,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}
