package config

// VerifyConfig holds the verification flow configuration
type VerifyConfig struct {
	// BaseURL is the public base URL embedded in verification links. It
	// must include the mount point of the verification routes.
	BaseURL string `env:"VERIFY_BASE_URL" env-default:"http://localhost:8080/account"`

	// AutoLogin controls whether a session is established after a
	// successful redemption
	AutoLogin bool `env:"VERIFY_AUTO_LOGIN" env-default:"true"`

	// ResendEnabled controls whether the resend route is exposed
	ResendEnabled bool `env:"VERIFY_RESEND_ENABLED" env-default:"true"`

	// KeyTable, KeyAccountIDColumn and KeyColumn override the verification
	// key table layout
	KeyTable           string `env:"VERIFY_KEY_TABLE" env-default:"account_verification_keys"`
	KeyAccountIDColumn string `env:"VERIFY_KEY_ACCOUNT_ID_COLUMN" env-default:"account_id"`
	KeyColumn          string `env:"VERIFY_KEY_COLUMN" env-default:"key"`
}

// JwtConfig holds the session token configuration
type JwtConfig struct {
	JwtSecret      string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	CookieHttpOnly bool   `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure   bool   `env:"COOKIE_SECURE" env-default:"false"`
}
