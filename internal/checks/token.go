package checks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/service"
)

// TokenParams are the inputs of the balance threshold check.
type TokenParams struct {
	Account    model.Account
	Asset      string
	MinAmount  string
	Issuer     string
	Comparison string
}

// CheckToken verifies that an account holds the required amount of a token.
func CheckToken(ctx context.Context, ledger service.LedgerQuery, params TokenParams) (Result, error) {
	switch {
	case params.Account == "":
		return missingParam("account"), nil
	case params.Asset == "":
		return missingParam("asset"), nil
	case params.MinAmount == "":
		return missingParam("minAmount"), nil
	}

	balance, err := ledger.GetBalance(ctx, params.Account, params.Asset, params.Issuer)
	if err != nil {
		return Result{}, err
	}

	ok, err := compareAmounts(balance, params.MinAmount, params.Comparison)
	if err != nil {
		return Result{}, err
	}

	slog.Debug("Token balance check result",
		"account", params.Account,
		"asset", params.Asset,
		"balance", balance,
		"required", params.MinAmount,
		"comparison", params.Comparison)

	message := "Token check passed"
	if !ok {
		message = fmt.Sprintf("Account has insufficient balance: %s %s", balance, params.Asset)
	}

	return Result{
		Success: ok,
		Message: message,
		Details: map[string]any{
			"account":  params.Account,
			"asset":    params.Asset,
			"balance":  balance,
			"required": params.MinAmount,
		},
	}, nil
}

// compareAmounts compares two ledger decimal strings without going through
// binary floating point.
func compareAmounts(actual, expected, comparison string) (bool, error) {
	a, err := decimal.NewFromString(actual)
	if err != nil {
		return false, fmt.Errorf("invalid balance amount %q: %w", actual, err)
	}
	e, err := decimal.NewFromString(expected)
	if err != nil {
		return false, fmt.Errorf("invalid required amount %q: %w", expected, err)
	}

	switch comparison {
	case "", "gte":
		return a.GreaterThanOrEqual(e), nil
	case "lte":
		return a.LessThanOrEqual(e), nil
	case "eq":
		return a.Equal(e), nil
	default:
		return false, fmt.Errorf("invalid comparison %q", comparison)
	}
}
