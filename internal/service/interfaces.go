// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/montelibero/npi/internal/model"
)

// LedgerQuery defines the contract for reading account state and payment
// history from the ledger.
type LedgerQuery interface {
	// GetBalance returns the account's balance for the given asset as the
	// ledger's decimal string. When assetIssuer is empty a non-native asset
	// is matched by code alone, which is deliberately looser than payment
	// matching.
	GetBalance(ctx context.Context, account model.Account, assetCode, assetIssuer string) (string, error)

	// DataValue returns the decoded value of a single data entry, or nil
	// when the account has no entry under the key.
	DataValue(ctx context.Context, account model.Account, key string) (*string, error)

	// AllData returns all decoded data entries of the account.
	AllData(ctx context.Context, account model.Account) (map[string]string, error)

	// Payments returns all payment operations touching the account created
	// at or after since, newest first.
	Payments(ctx context.Context, account model.Account, since time.Time) ([]model.PaymentRecord, error)
}

// IdentityDirectory resolves chat handles to ledger accounts and personal
// tokens.
type IdentityDirectory interface {
	// ResolveAccount returns the ledger account registered for the handle,
	// or an empty account when the handle is unknown.
	ResolveAccount(ctx context.Context, handle string) (model.Account, error)

	// ResolvePersonalToken returns the member's fee token, or nil when none
	// is registered for the handle.
	ResolvePersonalToken(ctx context.Context, handle string) (*model.PersonalToken, error)
}

// ChatDirectory lists the current members of a chat.
type ChatDirectory interface {
	Members(ctx context.Context, chatID int64) ([]model.Member, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
