package checks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/service"
)

// TagParams are the inputs of the mutual tag pairing check.
type TagParams struct {
	Account model.Account
	Key     string
	PairKey string
}

// CheckTag verifies that two accounts reference each other through data
// entries: the account's entry under key names a pair account whose own entry
// (under pairKey, defaulting to key) points back.
func CheckTag(ctx context.Context, ledger service.LedgerQuery, params TagParams) (Result, error) {
	switch {
	case params.Account == "":
		return missingParam("account"), nil
	case params.Key == "":
		return missingParam("key"), nil
	}

	value, err := ledger.DataValue(ctx, params.Account, params.Key)
	if err != nil {
		return Result{}, err
	}
	if value == nil {
		return Result{
			Success: false,
			Message: fmt.Sprintf("Account %s has no tag with key %s", params.Account, params.Key),
			Details: map[string]any{
				"account": params.Account,
				"key":     params.Key,
			},
		}, nil
	}

	pairAccount := model.Account(*value)
	pairKey := params.PairKey
	if pairKey == "" {
		pairKey = params.Key
	}

	pairValue, err := ledger.DataValue(ctx, pairAccount, pairKey)
	if err != nil {
		return Result{}, err
	}
	if pairValue == nil {
		return Result{
			Success: false,
			Message: fmt.Sprintf("Pair account %s has no tag with key %s", pairAccount, pairKey),
			Details: map[string]any{
				"account":     params.Account,
				"pairAccount": pairAccount,
				"key":         params.Key,
				"pairKey":     pairKey,
			},
		}, nil
	}

	isPaired := model.Account(*pairValue) == params.Account

	slog.Debug("Tag check result",
		"account", params.Account,
		"pair_account", pairAccount,
		"key", params.Key,
		"pair_key", pairKey,
		"paired", isPaired)

	message := "Tag check passed"
	if !isPaired {
		message = "Tag check failed: accounts are not paired"
	}

	return Result{
		Success: isPaired,
		Message: message,
		Details: map[string]any{
			"account":     params.Account,
			"pairAccount": pairAccount,
			"key":         params.Key,
			"pairKey":     pairKey,
		},
	}, nil
}
