package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"

	"github.com/tendant/simple-verify/pkg/account"
	"github.com/tendant/simple-verify/pkg/config"
	"github.com/tendant/simple-verify/pkg/credentials"
	credentialsapi "github.com/tendant/simple-verify/pkg/credentials/api"
	"github.com/tendant/simple-verify/pkg/dbx"
	"github.com/tendant/simple-verify/pkg/notification"
	"github.com/tendant/simple-verify/pkg/session"
	"github.com/tendant/simple-verify/pkg/signup"
	"github.com/tendant/simple-verify/pkg/verification"
	verificationapi "github.com/tendant/simple-verify/pkg/verification/api"
)

type Config struct {
	DbConfig     config.DatabaseConfig
	AppConfig    app.AppConfig
	EmailConfig  config.EmailConfig
	VerifyConfig config.VerifyConfig
	JwtConfig    config.JwtConfig

	RegistrationEnabled bool `env:"SIGNUP_ENABLED" env-default:"true"`
}

func main() {

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	dbConfig := cfg.DbConfig.ToDbConfig()
	pool, err := dbutils.NewDbPool(context.Background(), dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		os.Exit(-1)
	}

	notificationManager, err := notification.NewNotificationManager(
		notification.WithSMTP(cfg.EmailConfig.ToSMTPConfig()),
	)
	if err != nil {
		slog.Error("Failed creating notification manager", "err", err)
		os.Exit(-1)
	}

	accountRepo := account.NewPostgresRepository(pool)

	keyTable := verification.TableConfig{
		Table:           cfg.VerifyConfig.KeyTable,
		AccountIDColumn: cfg.VerifyConfig.KeyAccountIDColumn,
		KeyColumn:       cfg.VerifyConfig.KeyColumn,
	}
	keyRepo, err := verification.NewVerificationRepository("postgres", verification.RepositoryConfig{
		Pool:  pool,
		Table: &keyTable,
	})
	if err != nil {
		slog.Error("Failed creating verification repository", "err", err)
		os.Exit(-1)
	}

	verificationService := verification.NewVerificationService(
		keyRepo,
		accountRepo,
		dbx.NewPgxTxBeginner(pool),
		notificationManager,
		cfg.VerifyConfig.BaseURL,
		verification.WithAutoLogin(cfg.VerifyConfig.AutoLogin),
	)

	credentialService := credentials.NewCredentialService(pool)

	sessionService := session.NewSessionService(
		cfg.JwtConfig.JwtSecret,
		session.WithCookieSetter(session.NewCookieSetter(cfg.JwtConfig.CookieHttpOnly, cfg.JwtConfig.CookieSecure)),
	)

	signupService := signup.NewSignupService(
		signup.WithAccountRepository(accountRepo),
		signup.WithCredentialService(credentialService),
		signup.WithVerificationService(verificationService),
		signup.WithRegistrationEnabled(cfg.RegistrationEnabled),
	)

	verifyHandle := verificationapi.NewHandler(verificationService,
		verificationapi.WithSessionStarter(sessionService),
		verificationapi.WithResendEnabled(cfg.VerifyConfig.ResendEnabled),
	)

	loginHandle := credentialsapi.NewHandler(accountRepo, credentialService, sessionService)

	server.R.Mount("/signup", signup.NewHandler(signupService).Routes())
	server.R.Post("/login", loginHandle.Login)
	server.R.Post("/logout", loginHandle.Logout)
	server.R.Mount("/account", verifyHandle.Routes())

	server.Run()

}
