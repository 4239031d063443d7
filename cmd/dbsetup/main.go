package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/tendant/simple-verify/migrations"
	"github.com/tendant/simple-verify/pkg/config"
	"github.com/tendant/simple-verify/pkg/credentials"
)

type Config struct {
	AdminDbConfig config.AdminDatabaseConfig
	DbConfig      config.DatabaseConfig
	VerifyConfig  config.VerifyConfig
}

func main() {

	teardown := flag.Bool("teardown", false, "drop the definer functions instead of setting up")
	flag.Parse()

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.AdminDbConfig.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed connecting as admin", "host", cfg.AdminDbConfig.Host, "db", cfg.AdminDbConfig.Database, "err", err)
		os.Exit(-1)
	}
	defer pool.Close()

	fns := credentials.DefaultFunctionConfig()

	if *teardown {
		if err := credentials.DropAuthFunctions(ctx, pool, fns); err != nil {
			slog.Error("Failed dropping definer functions", "err", err)
			os.Exit(-1)
		}
		slog.Info("Dropped definer functions")
		return
	}

	if err := runMigrations(cfg.AdminDbConfig.ToDatabaseURL()); err != nil {
		slog.Error("Failed running migrations", "err", err)
		os.Exit(-1)
	}

	if err := ensureAppRole(ctx, pool, cfg.DbConfig.User, cfg.DbConfig.Password); err != nil {
		slog.Error("Failed creating application role", "role", cfg.DbConfig.User, "err", err)
		os.Exit(-1)
	}

	if err := credentials.CreateAuthFunctions(ctx, pool, fns); err != nil {
		slog.Error("Failed creating definer functions", "err", err)
		os.Exit(-1)
	}

	if err := credentials.GrantAuthFunctionAccess(ctx, pool, fns, cfg.DbConfig.User); err != nil {
		slog.Error("Failed granting function access", "role", cfg.DbConfig.User, "err", err)
		os.Exit(-1)
	}

	if err := grantTableAccess(ctx, pool, cfg, cfg.DbConfig.User); err != nil {
		slog.Error("Failed granting table access", "role", cfg.DbConfig.User, "err", err)
		os.Exit(-1)
	}

	slog.Info("Database setup complete", "role", cfg.DbConfig.User)
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// ensureAppRole creates the restricted login role when it does not exist
// yet. CREATE ROLE has no IF NOT EXISTS so the check runs in a DO block.
func ensureAppRole(ctx context.Context, pool *pgxpool.Pool, role, password string) error {
	stmt := fmt.Sprintf(`DO $$
BEGIN
    IF NOT EXISTS (SELECT FROM pg_roles WHERE rolname = %s) THEN
        EXECUTE format('CREATE ROLE %%I LOGIN PASSWORD %%L', %s, %s);
    END IF;
END
$$;`, quoteLiteral(role), quoteLiteral(role), quoteLiteral(password))
	_, err := pool.Exec(ctx, stmt)
	return err
}

// grantTableAccess gives the restricted role working access to the account
// and verification key tables. The password hash table is deliberately not
// granted here; GrantAuthFunctionAccess hands out only the narrow grants
// the privilege model allows.
func grantTableAccess(ctx context.Context, pool *pgxpool.Pool, cfg Config, role string) error {
	roleIdent := pgx.Identifier{role}.Sanitize()
	tables := []string{
		pgx.Identifier{"accounts"}.Sanitize(),
		pgx.Identifier{cfg.VerifyConfig.KeyTable}.Sanitize(),
	}
	for _, table := range tables {
		stmt := fmt.Sprintf("GRANT SELECT, INSERT, UPDATE, DELETE ON %s TO %s", table, roleIdent)
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("grant on %s: %w", table, err)
		}
	}
	return nil
}

func quoteLiteral(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}
