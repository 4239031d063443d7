// Package verification provides single-use account verification keys for
// simple-verify.
//
// A newly created account starts in the unverified status and carries at
// most one outstanding verification key. The key is a high-entropy random
// value delivered out of band (email link); redeeming it opens the account
// and deletes the key in one transaction, so a key can never be redeemed
// twice.
//
// # Overview
//
// The verification package provides:
//   - Verification key generation and issuance
//   - Read-only token validation (Present)
//   - Atomic redemption: account opens and key is deleted as one unit
//   - Resend of the verification email reusing the outstanding key
//   - Repository pattern for PostgreSQL and in-memory storage
//
// # Basic Usage
//
//	import "github.com/tendant/simple-verify/pkg/verification"
//
//	repo := verification.NewPostgresRepository(pool)
//	service := verification.NewVerificationService(
//		repo,
//		accountRepo,
//		dbx.NewPgxTxBeginner(pool),
//		notificationManager,
//		"https://app.example.com",
//		verification.WithAutoLogin(true),
//	)
//
//	// Issue a key during registration. The verification email contains
//	// a link of the form https://app.example.com/verify?key=<key>.
//	key, err := service.Issue(ctx, acct)
//
//	// Validate a presented key without consuming it (GET handler).
//	acct, err := service.Present(ctx, key)
//
//	// Consume the key and open the account (POST handler).
//	acct, err = service.Redeem(ctx, key)
//
// # Concurrency
//
// Two requests racing to create a key for the same account resolve through
// the unique constraint on the key table: the loser of the insert race
// re-reads the winning row and reuses its key value. Two requests racing to
// redeem the same key resolve through the delete-then-check pattern: the
// first transaction to commit wins and the second finds no matching key.
//
// # Keys do not expire
//
// Keys carry no TTL; they stay valid until redeemed. The 256-bit random
// value is large enough to stay unguessable indefinitely.
package verification
