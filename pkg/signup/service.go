package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-verify/pkg/account"
	"github.com/tendant/simple-verify/pkg/credentials"
	"github.com/tendant/simple-verify/pkg/verification"
)

// SignupService handles account registration: the account is created in
// the unverified status, its password is stored through the credential
// service, and a verification key is issued and delivered.
type SignupService struct {
	accounts            account.Repository
	credentialService   *credentials.CredentialService
	verificationService *verification.VerificationService
	registrationEnabled bool
}

// SignupServiceOption is a functional option for configuring SignupService
type SignupServiceOption func(*SignupService)

// WithAccountRepository sets the account repository
func WithAccountRepository(repo account.Repository) SignupServiceOption {
	return func(s *SignupService) {
		s.accounts = repo
	}
}

// WithCredentialService sets the credential service
func WithCredentialService(cs *credentials.CredentialService) SignupServiceOption {
	return func(s *SignupService) {
		s.credentialService = cs
	}
}

// WithVerificationService sets the verification service
func WithVerificationService(vs *verification.VerificationService) SignupServiceOption {
	return func(s *SignupService) {
		s.verificationService = vs
	}
}

// WithRegistrationEnabled sets whether registration is enabled
func WithRegistrationEnabled(enabled bool) SignupServiceOption {
	return func(s *SignupService) {
		s.registrationEnabled = enabled
	}
}

// NewSignupService creates a new SignupService with the given options
func NewSignupService(opts ...SignupServiceOption) *SignupService {
	s := &SignupService{
		registrationEnabled: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register creates a new unverified account with the given login and
// password and issues its verification key. Registering a login whose
// account is still awaiting verification returns
// ErrAccountAwaitingVerification so the caller can point at the resend
// path instead of creating a duplicate.
func (s *SignupService) Register(ctx context.Context, login, password string) (account.Account, error) {
	if !s.registrationEnabled {
		return account.Account{}, ErrRegistrationDisabled
	}

	existing, err := s.accounts.GetByLogin(ctx, login)
	if err == nil {
		if existing.Status == account.StatusUnverified {
			return account.Account{}, ErrAccountAwaitingVerification
		}
		return account.Account{}, account.ErrLoginTaken
	}
	if !errors.Is(err, account.ErrAccountNotFound) {
		return account.Account{}, fmt.Errorf("failed to look up login: %w", err)
	}

	acct, err := s.accounts.CreateAccount(ctx, login)
	if err != nil {
		// A concurrent registration may have won the race since the lookup.
		if errors.Is(err, account.ErrLoginTaken) {
			return account.Account{}, ErrAccountAwaitingVerification
		}
		return account.Account{}, err
	}

	if err := s.credentialService.SetPassword(ctx, acct.ID, password); err != nil {
		slog.Error("Failed to set password for new account", "account_id", acct.ID, "err", err)
		return account.Account{}, err
	}

	if _, err := s.verificationService.Issue(ctx, acct); err != nil {
		slog.Error("Failed to issue verification key for new account", "account_id", acct.ID, "err", err)
		return account.Account{}, err
	}

	slog.Info("Account registered", "account_id", acct.ID)
	return acct, nil
}
