package config

import (
	"fmt"

	dbutils "github.com/tendant/db-utils/db"
)

// DatabaseConfig holds the PostgreSQL configuration for the restricted
// application role. This role must not hold a select grant on the password
// hash column; cmd/dbsetup arranges the grants.
type DatabaseConfig struct {
	Host     string `env:"VERIFY_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"VERIFY_PG_PORT" env-default:"5432"`
	Database string `env:"VERIFY_PG_DATABASE" env-default:"verify_db"`
	User     string `env:"VERIFY_PG_USER" env-default:"verify"`
	Password string `env:"VERIFY_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"VERIFY_PG_SCHEMA" env-default:"public"`
}

// AdminDatabaseConfig holds the configuration for the privileged role used
// by one-time administrative setup (migrations, definer functions, grants)
type AdminDatabaseConfig struct {
	Host     string `env:"VERIFY_PG_ADMIN_HOST" env-default:"localhost"`
	Port     uint16 `env:"VERIFY_PG_ADMIN_PORT" env-default:"5432"`
	Database string `env:"VERIFY_PG_ADMIN_DATABASE" env-default:"verify_db"`
	User     string `env:"VERIFY_PG_ADMIN_USER" env-default:"postgres"`
	Password string `env:"VERIFY_PG_ADMIN_PASSWORD" env-default:"pwd"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// ToDbConfig converts the config to a db-utils DbConfig
func (d DatabaseConfig) ToDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

// ToDatabaseURL converts the admin config to a PostgreSQL connection URL
func (d AdminDatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}
