package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is a single payment operation from the ledger. Records are
// produced only by the ledger client and never mutated afterwards.
type PaymentRecord struct {
	CreatedAt   time.Time
	Hash        string
	PagingToken string
	From        Account
	To          Account
	Asset       AssetSpec
	Amount      decimal.Decimal
}
