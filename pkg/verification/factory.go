package verification

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig contains configuration for creating a verification key
// repository
type RepositoryConfig struct {
	// Pool is required for PostgreSQL repositories
	Pool *pgxpool.Pool
	// Table overrides the default table layout for PostgreSQL repositories
	Table *TableConfig
}

// NewVerificationRepository creates a key repository for the given
// persistence type
func NewVerificationRepository(persistenceType string, config RepositoryConfig) (Repository, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres repository")
		}
		if config.Table != nil {
			return NewPostgresRepositoryWithConfig(config.Pool, *config.Table), nil
		}
		return NewPostgresRepository(config.Pool), nil
	case "inmem", "memory":
		return NewInMemRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}
