package credentials

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tendant/simple-verify/migrations"
	"github.com/tendant/simple-verify/pkg/account"
)

const (
	testAppRole     = "authapp"
	testAppPassword = "authpw"
)

// setupPrivilegeSeparatedDatabase provisions the schema, the definer
// functions and a restricted login role, and returns one pool per role.
func setupPrivilegeSeparatedDatabase(t *testing.T) (admin, restricted *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "."))

	admin, err = pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	_, err = admin.Exec(ctx, `CREATE ROLE `+testAppRole+` LOGIN PASSWORD '`+testAppPassword+`'`)
	require.NoError(t, err)

	fns := DefaultFunctionConfig()
	require.NoError(t, CreateAuthFunctions(ctx, admin, fns))
	require.NoError(t, GrantAuthFunctionAccess(ctx, admin, fns, testAppRole))

	restrictedURL, err := url.Parse(connStr)
	require.NoError(t, err)
	restrictedURL.User = url.UserPassword(testAppRole, testAppPassword)

	restricted, err = pgxpool.New(ctx, restrictedURL.String())
	require.NoError(t, err)
	t.Cleanup(restricted.Close)

	return admin, restricted
}

func TestPrivilegeSeparation(t *testing.T) {
	ctx := context.Background()
	admin, restricted := setupPrivilegeSeparatedDatabase(t)

	accounts := account.NewPostgresRepository(admin)
	acct, err := accounts.CreateAccount(ctx, "alice@example.com")
	require.NoError(t, err)

	service := NewCredentialService(restricted)
	require.NoError(t, service.SetPassword(ctx, acct.ID, "pass123"))

	t.Run("RestrictedRoleCannotReadHashColumn", func(t *testing.T) {
		var hash string
		err := restricted.QueryRow(ctx,
			`SELECT password_hash FROM account_password_hashes WHERE account_id = $1`, acct.ID).Scan(&hash)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")
	})

	t.Run("RestrictedRoleCanSelectAccountIDColumn", func(t *testing.T) {
		has, err := service.HasPassword(ctx, acct.ID)
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("GetSaltReturnsPrefixOnly", func(t *testing.T) {
		salt, err := service.GetSalt(ctx, acct.ID)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(salt, "$argon2id$v=19$"))
		assert.Equal(t, 5, len(strings.Split(salt, "$")), "salt prefix must not contain the digest")

		var stored string
		err = admin.QueryRow(ctx,
			`SELECT password_hash FROM account_password_hashes WHERE account_id = $1`, acct.ID).Scan(&stored)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stored, salt+"$"))
	})

	t.Run("VerifyPassword", func(t *testing.T) {
		valid, err := service.VerifyPassword(ctx, acct.ID, "pass123")
		require.NoError(t, err)
		assert.True(t, valid)

		valid, err = service.VerifyPassword(ctx, acct.ID, "wrong-password")
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("AuthenticateRequiresOpenAccount", func(t *testing.T) {
		_, err := service.Authenticate(ctx, acct, "pass123")
		assert.ErrorIs(t, err, ErrAccountNotOpen)

		rows, err := accounts.UpdateStatus(ctx, acct.ID, account.StatusOpen)
		require.NoError(t, err)
		require.EqualValues(t, 1, rows)

		acct.Status = account.StatusOpen
		valid, err := service.Authenticate(ctx, acct, "pass123")
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("NoPassword", func(t *testing.T) {
		other, err := accounts.CreateAccount(ctx, "bob@example.com")
		require.NoError(t, err)

		_, err = service.GetSalt(ctx, other.ID)
		assert.ErrorIs(t, err, ErrNoPassword)

		_, err = service.VerifyPassword(ctx, other.ID, "pass123")
		assert.ErrorIs(t, err, ErrNoPassword)

		has, err := service.HasPassword(ctx, other.ID)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("ChangePassword", func(t *testing.T) {
		require.NoError(t, service.SetPassword(ctx, acct.ID, "new-pass456"))

		valid, err := service.VerifyPassword(ctx, acct.ID, "new-pass456")
		require.NoError(t, err)
		assert.True(t, valid)

		valid, err = service.VerifyPassword(ctx, acct.ID, "pass123")
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("DeletePassword", func(t *testing.T) {
		require.NoError(t, service.DeletePassword(ctx, acct.ID))

		_, err := service.VerifyPassword(ctx, acct.ID, "new-pass456")
		assert.ErrorIs(t, err, ErrNoPassword)
	})
}

func TestDropAuthFunctions(t *testing.T) {
	ctx := context.Background()
	admin, _ := setupPrivilegeSeparatedDatabase(t)

	fns := DefaultFunctionConfig()
	require.NoError(t, DropAuthFunctions(ctx, admin, fns))
	// Dropping again must not fail
	require.NoError(t, DropAuthFunctions(ctx, admin, fns))

	service := NewCredentialService(admin)
	_, err := service.GetSalt(ctx, uuid.New())
	assert.Error(t, err)
}
