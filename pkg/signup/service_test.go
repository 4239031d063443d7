package signup

import (
	"context"
	"database/sql"
	"testing"
	"time"

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
	"github.com/tendant/simple-verify/pkg/credentials"
	"github.com/tendant/simple-verify/pkg/dbx"
	"github.com/tendant/simple-verify/pkg/notification"
	"github.com/tendant/simple-verify/pkg/verification"
)

type signupFixture struct {
	service      *SignupService
	verification *verification.VerificationService
	credentials  *credentials.CredentialService
	accounts     account.Repository
	notifier     *notification.MockNotifier
}

func setupSignupFixture(t *testing.T) *signupFixture {
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

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	mockNotifier := &notification.MockNotifier{}
	nm, err := notification.NewNotificationManager(
		notification.WithNotifier(notification.EmailSystem, mockNotifier),
	)
	require.NoError(t, err)

	accounts := account.NewPostgresRepository(pool)
	keyRepo := verification.NewPostgresRepository(pool)
	verificationService := verification.NewVerificationService(
		keyRepo, accounts, dbx.NewPgxTxBeginner(pool), nm, "http://localhost:8080/account")
	credentialService := credentials.NewCredentialService(pool)

	service := NewSignupService(
		WithAccountRepository(accounts),
		WithCredentialService(credentialService),
		WithVerificationService(verificationService),
	)

	return &signupFixture{
		service:      service,
		verification: verificationService,
		credentials:  credentialService,
		accounts:     accounts,
		notifier:     mockNotifier,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := setupSignupFixture(t)

	acct, err := f.service.Register(ctx, "alice@example.com", "pass123")
	require.NoError(t, err)
	assert.Equal(t, account.StatusUnverified, acct.Status)

	require.Len(t, f.notifier.SentNotifications, 1)
	assert.Equal(t, "alice@example.com", f.notifier.SentNotifications[0].To)

	has, err := f.credentials.HasPassword(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, has)

	t.Run("DuplicateWhileAwaitingVerification", func(t *testing.T) {
		_, err := f.service.Register(ctx, "alice@example.com", "other-pass")
		assert.ErrorIs(t, err, ErrAccountAwaitingVerification)
	})

	t.Run("DuplicateAfterVerification", func(t *testing.T) {
		link := f.notifier.SentNotifications[0].Data["VerificationLink"]
		key := link[len("http://localhost:8080/account/verify?key="):]

		verified, err := f.verification.Redeem(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, account.StatusOpen, verified.Status)

		_, err = f.service.Register(ctx, "alice@example.com", "other-pass")
		assert.ErrorIs(t, err, account.ErrLoginTaken)
	})
}

func TestRegisterThenVerifyThenLogin(t *testing.T) {
	ctx := context.Background()
	f := setupSignupFixture(t)

	acct, err := f.service.Register(ctx, "bob@example.com", "pass123")
	require.NoError(t, err)

	// Cannot authenticate before verification
	_, err = f.credentials.Authenticate(ctx, acct, "pass123")
	assert.ErrorIs(t, err, credentials.ErrAccountNotOpen)

	link := f.notifier.SentNotifications[0].Data["VerificationLink"]
	key := link[len("http://localhost:8080/account/verify?key="):]

	verified, err := f.verification.Redeem(ctx, key)
	require.NoError(t, err)

	valid, err := f.credentials.Authenticate(ctx, verified, "pass123")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = f.credentials.Authenticate(ctx, verified, "wrong-password")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestRegisterDisabled(t *testing.T) {
	service := NewSignupService(WithRegistrationEnabled(false))

	_, err := service.Register(context.Background(), "alice@example.com", "pass123")
	assert.ErrorIs(t, err, ErrRegistrationDisabled)
}
