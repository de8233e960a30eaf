package checks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montelibero/npi/internal/engine"
	"github.com/montelibero/npi/internal/model"
)

func TestCheckToken(t *testing.T) {
	tests := []struct {
		name        string
		balance     string
		wantMessage string
		params      TokenParams
		wantSuccess bool
	}{
		{
			name:        "missing account",
			params:      TokenParams{Asset: "EURMTL", MinAmount: "1"},
			wantSuccess: false,
			wantMessage: "Missing required parameter: account",
		},
		{
			name:        "missing asset",
			params:      TokenParams{Account: "GHOLDER", MinAmount: "1"},
			wantSuccess: false,
			wantMessage: "Missing required parameter: asset",
		},
		{
			name:        "missing min amount",
			params:      TokenParams{Account: "GHOLDER", Asset: "EURMTL"},
			wantSuccess: false,
			wantMessage: "Missing required parameter: minAmount",
		},
		{
			name:        "sufficient balance",
			params:      TokenParams{Account: "GHOLDER", Asset: "EURMTL", MinAmount: "10"},
			balance:     "25.0000000",
			wantSuccess: true,
			wantMessage: "Token check passed",
		},
		{
			name:        "insufficient balance",
			params:      TokenParams{Account: "GHOLDER", Asset: "EURMTL", MinAmount: "100"},
			balance:     "25.0000000",
			wantSuccess: false,
			wantMessage: "Account has insufficient balance: 25.0000000 EURMTL",
		},
		{
			name:        "lte comparison",
			params:      TokenParams{Account: "GHOLDER", Asset: "EURMTL", MinAmount: "100", Comparison: "lte"},
			balance:     "25.0000000",
			wantSuccess: true,
			wantMessage: "Token check passed",
		},
		{
			name:        "eq comparison respects trailing zeros",
			params:      TokenParams{Account: "GHOLDER", Asset: "EURMTL", MinAmount: "25", Comparison: "eq"},
			balance:     "25.0000000",
			wantSuccess: true,
			wantMessage: "Token check passed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &engine.MockLedger{
				GetBalanceFn: func(_ context.Context, _ model.Account, _, _ string) (string, error) {
					return tt.balance, nil
				},
			}

			result, err := CheckToken(context.Background(), ledger, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantMessage, result.Message)
		})
	}
}

func TestCheckToken_UpstreamError(t *testing.T) {
	ledger := &engine.MockLedger{
		GetBalanceFn: func(_ context.Context, _ model.Account, _, _ string) (string, error) {
			return "", errors.New("horizon unreachable")
		},
	}

	_, err := CheckToken(context.Background(), ledger, TokenParams{
		Account:   "GHOLDER",
		Asset:     "EURMTL",
		MinAmount: "1",
	})
	require.Error(t, err)
}

func TestCheckTx(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []model.PaymentRecord{
		{
			Asset:     model.NativeAsset(),
			From:      "GOTHER",
			To:        "GHOLDER",
			CreatedAt: since.Add(24 * time.Hour),
			Hash:      "native-in",
			Amount:    decimal.NewFromInt(1),
		},
		{
			Asset:     model.AssetSpec{Code: "TEST", Issuer: "GISSUER"},
			From:      "GHOLDER",
			To:        "GOTHER",
			CreatedAt: since.Add(48 * time.Hour),
			Hash:      "issued-out",
			Amount:    decimal.NewFromInt(2),
		},
	}

	tests := []struct {
		name        string
		params      TxParams
		wantSuccess bool
	}{
		{
			name:        "missing since",
			params:      TxParams{Account: "GHOLDER", Asset: "XLM"},
			wantSuccess: false,
		},
		{
			name:        "native payment found",
			params:      TxParams{Account: "GHOLDER", Asset: "XLM", Since: since},
			wantSuccess: true,
		},
		{
			name:        "issued asset found with issuer",
			params:      TxParams{Account: "GHOLDER", Asset: "TEST", Issuer: "GISSUER", Since: since},
			wantSuccess: true,
		},
		{
			name:        "issued asset found without issuer",
			params:      TxParams{Account: "GHOLDER", Asset: "TEST", Since: since},
			wantSuccess: true,
		},
		{
			name:        "wrong issuer not found",
			params:      TxParams{Account: "GHOLDER", Asset: "TEST", Issuer: "GWRONG", Since: since},
			wantSuccess: false,
		},
		{
			name:        "incoming direction",
			params:      TxParams{Account: "GHOLDER", Asset: "XLM", Direction: engine.DirectionIn, Since: since},
			wantSuccess: true,
		},
		{
			name:        "outgoing native not present",
			params:      TxParams{Account: "GHOLDER", Asset: "XLM", Direction: engine.DirectionOut, Since: since},
			wantSuccess: false,
		},
		{
			name: "counterparty on either side",
			params: TxParams{
				Account:      "GHOLDER",
				Asset:        "TEST",
				Counterparty: "GOTHER",
				Since:        since,
			},
			wantSuccess: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &engine.MockLedger{
				PaymentsFn: func(_ context.Context, _ model.Account, _ time.Time) ([]model.PaymentRecord, error) {
					return records, nil
				},
			}

			result, err := CheckTx(context.Background(), ledger, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
		})
	}
}

func TestCheckTag(t *testing.T) {
	data := map[model.Account]map[string]string{
		"GA": {"Partner": "GB"},
		"GB": {"Partner": "GA"},
		"GC": {"Partner": "GA"},
		// GA does not point back at GC.
	}

	ledger := &engine.MockLedger{
		DataValueFn: func(_ context.Context, account model.Account, key string) (*string, error) {
			value, ok := data[account][key]
			if !ok {
				return nil, nil
			}
			return &value, nil
		},
	}

	tests := []struct {
		name        string
		wantMessage string
		params      TagParams
		wantSuccess bool
	}{
		{
			name:        "missing key",
			params:      TagParams{Account: "GA"},
			wantSuccess: false,
			wantMessage: "Missing required parameter: key",
		},
		{
			name:        "mutual tags pass",
			params:      TagParams{Account: "GA", Key: "Partner"},
			wantSuccess: true,
			wantMessage: "Tag check passed",
		},
		{
			name:        "one-way tag fails",
			params:      TagParams{Account: "GC", Key: "Partner"},
			wantSuccess: false,
			wantMessage: "Tag check failed: accounts are not paired",
		},
		{
			name:        "no tag on account",
			params:      TagParams{Account: "GA", Key: "Missing"},
			wantSuccess: false,
			wantMessage: "Account GA has no tag with key Missing",
		},
		{
			name:        "pair account has no tag",
			params:      TagParams{Account: "GA", Key: "Partner", PairKey: "Other"},
			wantSuccess: false,
			wantMessage: "Pair account GB has no tag with key Other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CheckTag(context.Background(), ledger, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantMessage, result.Message)
		})
	}
}
