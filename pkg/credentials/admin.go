package credentials

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tendant/simple-verify/pkg/dbx"
)

// FunctionConfig carries the configurable names of the hash table and the
// two definer functions
type FunctionConfig struct {
	HashTable         string
	GetSaltFunction   string
	ValidHashFunction string
}

// DefaultFunctionConfig returns the default names
func DefaultFunctionConfig() FunctionConfig {
	return FunctionConfig{
		HashTable:         "account_password_hashes",
		GetSaltFunction:   "auth_get_salt",
		ValidHashFunction: "auth_valid_password_hash",
	}
}

func (c FunctionConfig) hashTable() string {
	return pgx.Identifier{c.HashTable}.Sanitize()
}

func (c FunctionConfig) getSalt() string {
	return pgx.Identifier{c.GetSaltFunction}.Sanitize()
}

func (c FunctionConfig) validHash() string {
	return pgx.Identifier{c.ValidHashFunction}.Sanitize()
}

// CreateAuthFunctions creates (or replaces) the two SECURITY DEFINER
// functions. They run with the privileges of the table owner and a pinned
// minimal search path, so a role with no select grant on the hash column
// can still get a salt prefix and check a candidate hash. This is a
// one-time administrative operation, executed on the admin connection, not
// by the request-serving runtime.
func CreateAuthFunctions(ctx context.Context, db dbx.DBTX, cfg FunctionConfig) error {
	getSalt := fmt.Sprintf(`
CREATE OR REPLACE FUNCTION %s(acct_id uuid) RETURNS text AS $$
DECLARE salt text;
BEGIN
SELECT left(password_hash, length(password_hash) - strpos(reverse(password_hash), '$'))
INTO salt
FROM %s
WHERE account_id = acct_id;
RETURN salt;
END;
$$ LANGUAGE plpgsql
SECURITY DEFINER
SET search_path = public, pg_temp;
`, cfg.getSalt(), cfg.hashTable())

	if _, err := db.Exec(ctx, getSalt); err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.GetSaltFunction, err)
	}

	validHash := fmt.Sprintf(`
CREATE OR REPLACE FUNCTION %s(acct_id uuid, hash text) RETURNS boolean AS $$
DECLARE valid boolean;
BEGIN
SELECT password_hash = hash
INTO valid
FROM %s
WHERE account_id = acct_id;
RETURN valid;
END;
$$ LANGUAGE plpgsql
SECURITY DEFINER
SET search_path = public, pg_temp;
`, cfg.validHash(), cfg.hashTable())

	if _, err := db.Exec(ctx, validHash); err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.ValidHashFunction, err)
	}

	return nil
}

// DropAuthFunctions drops the definer functions. Idempotent.
func DropAuthFunctions(ctx context.Context, db dbx.DBTX, cfg FunctionConfig) error {
	stmts := []string{
		fmt.Sprintf(`DROP FUNCTION IF EXISTS %s(uuid)`, cfg.getSalt()),
		fmt.Sprintf(`DROP FUNCTION IF EXISTS %s(uuid, text)`, cfg.validHash()),
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop auth function: %w", err)
		}
	}

	return nil
}

// GrantAuthFunctionAccess locks the hash table down and grants the
// restricted role exactly what the credential protocol needs: write access
// to its own hash rows, select on the account_id column only, and execute
// on the two functions. The role ends up unable to read the hash column
// directly.
func GrantAuthFunctionAccess(ctx context.Context, db dbx.DBTX, cfg FunctionConfig, role string) error {
	quotedRole := pgx.Identifier{role}.Sanitize()

	stmts := []string{
		fmt.Sprintf(`REVOKE ALL ON %s FROM public`, cfg.hashTable()),
		fmt.Sprintf(`REVOKE ALL ON FUNCTION %s(uuid) FROM public`, cfg.getSalt()),
		fmt.Sprintf(`REVOKE ALL ON FUNCTION %s(uuid, text) FROM public`, cfg.validHash()),
		fmt.Sprintf(`GRANT INSERT, UPDATE, DELETE ON %s TO %s`, cfg.hashTable(), quotedRole),
		fmt.Sprintf(`GRANT SELECT(account_id) ON %s TO %s`, cfg.hashTable(), quotedRole),
		fmt.Sprintf(`GRANT EXECUTE ON FUNCTION %s(uuid) TO %s`, cfg.getSalt(), quotedRole),
		fmt.Sprintf(`GRANT EXECUTE ON FUNCTION %s(uuid, text) TO %s`, cfg.validHash(), quotedRole),
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to grant auth function access: %w", err)
		}
	}

	return nil
}
