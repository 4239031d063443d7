package verification

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-verify/pkg/account"
	"github.com/tendant/simple-verify/pkg/dbx"
	"github.com/tendant/simple-verify/pkg/notification"
)

// VerificationService issues, redeems and resends account verification keys
type VerificationService struct {
	repo                Repository
	accounts            account.Repository
	txBeginner          dbx.TxBeginner
	notificationManager *notification.NotificationManager
	baseURL             string
	autoLogin           bool
}

// VerificationServiceOption defines configuration options
type VerificationServiceOption func(*VerificationService)

// WithAutoLogin controls whether a session should be established after a
// successful redemption. Default is true.
func WithAutoLogin(autoLogin bool) VerificationServiceOption {
	return func(s *VerificationService) {
		s.autoLogin = autoLogin
	}
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	repo Repository,
	accounts account.Repository,
	txBeginner dbx.TxBeginner,
	notificationManager *notification.NotificationManager,
	baseURL string,
	opts ...VerificationServiceOption,
) *VerificationService {
	service := &VerificationService{
		repo:                repo,
		accounts:            accounts,
		txBeginner:          txBeginner,
		notificationManager: notificationManager,
		baseURL:             baseURL,
		autoLogin:           true,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// AutoLogin reports whether a session should be established after a
// successful redemption
func (s *VerificationService) AutoLogin() bool {
	return s.autoLogin
}

// generateKey generates a cryptographically secure random key. 32 bytes of
// entropy keeps the key unguessable indefinitely; keys carry no expiry.
func generateKey() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Issue creates a verification key for the account (reusing any outstanding
// key) and delivers the verification link. Returns the live key value. Two
// different live keys for one account can never be issued: when a key is
// already outstanding its value is reused for the link.
func (s *VerificationService) Issue(ctx context.Context, acct account.Account) (string, error) {
	fresh, err := generateKey()
	if err != nil {
		return "", err
	}

	result, err := s.repo.CreateKeyIfAbsent(ctx, acct.ID, fresh)
	if err != nil {
		slog.Error("Failed to create verification key", "account_id", acct.ID, "err", err)
		return "", fmt.Errorf("failed to create verification key: %w", err)
	}

	if result.Status == KeyAlreadyExists {
		slog.Info("Reusing outstanding verification key", "account_id", acct.ID)
	}

	if err := s.sendVerificationEmail(ctx, acct, result.Key); err != nil {
		slog.Error("Failed to send verification email", "account_id", acct.ID, "err", err)
		return "", err
	}

	slog.Info("Verification key issued", "account_id", acct.ID)
	return result.Key, nil
}

// Present validates a token without mutating anything. The account is
// returned when its outstanding key equals the token and its status is
// still unverified; every other case is ErrKeyNotFound.
func (s *VerificationService) Present(ctx context.Context, token string) (account.Account, error) {
	return s.accountFromKey(ctx, s.repo, s.accounts, token)
}

// Redeem consumes the token: it re-validates the token, sets the account
// status to open and deletes the key, all in one transaction. A second
// redemption with the same token fails the re-validation because the key no
// longer exists; this is what makes redemption effectively exactly-once.
func (s *VerificationService) Redeem(ctx context.Context, token string) (account.Account, error) {
	tx, err := s.txBeginner.Begin(ctx)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	repo := s.repo.WithTx(tx)
	accounts := s.accounts.WithTx(tx)

	// Do not trust a prior Present call; the key may have been redeemed
	// between requests.
	acct, err := s.accountFromKey(ctx, repo, accounts, token)
	if err != nil {
		return account.Account{}, err
	}

	rows, err := accounts.UpdateStatus(ctx, acct.ID, account.StatusOpen)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to open account: %w", err)
	}
	if rows != 1 {
		return account.Account{}, fmt.Errorf("account status update affected %d rows", rows)
	}

	if err := repo.DeleteKey(ctx, acct.ID); err != nil {
		return account.Account{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return account.Account{}, fmt.Errorf("failed to commit redemption: %w", err)
	}

	acct.Status = account.StatusOpen
	slog.Info("Account verified", "account_id", acct.ID)
	return acct, nil
}

// Resend re-delivers the verification link for an account that has not yet
// completed verification. The outstanding key is reused so that every copy
// of the link points at the same value; a key is created only when none
// exists. Unknown logins and already-open accounts both report the same
// generic error.
func (s *VerificationService) Resend(ctx context.Context, login string) error {
	acct, err := s.accounts.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			slog.Info("Resend requested for unknown login")
			return ErrResendNotAllowed
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	if acct.Status != account.StatusUnverified {
		slog.Info("Resend requested for account not awaiting verification",
			"account_id", acct.ID, "status", acct.Status)
		return ErrResendNotAllowed
	}

	if _, err := s.Issue(ctx, acct); err != nil {
		return err
	}

	return nil
}

func (s *VerificationService) accountFromKey(ctx context.Context, repo Repository, accounts account.Repository, token string) (account.Account, error) {
	if token == "" {
		return account.Account{}, ErrKeyNotFound
	}

	accountID, err := repo.FindAccountIDByKey(ctx, token)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return account.Account{}, ErrKeyNotFound
		}
		return account.Account{}, fmt.Errorf("failed to look up verification key: %w", err)
	}

	acct, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return account.Account{}, ErrKeyNotFound
		}
		return account.Account{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if acct.Status != account.StatusUnverified {
		return account.Account{}, ErrKeyNotFound
	}

	return acct, nil
}

// sendVerificationEmail delivers the verification link for the account
func (s *VerificationService) sendVerificationEmail(ctx context.Context, acct account.Account, key string) error {
	if s.notificationManager == nil {
		slog.Warn("Notification manager not configured, skipping email send")
		return nil
	}

	verificationLink := fmt.Sprintf("%s/verify?key=%s", s.baseURL, key)

	notificationData := notification.NotificationData{
		To: acct.Login,
		Data: map[string]string{
			"Login":            acct.Login,
			"VerificationLink": verificationLink,
		},
	}

	err := s.notificationManager.Send(notification.AccountVerificationNotice, notification.EmailSystem, notificationData)
	if err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}
