package checks

import (
	"context"
	"log/slog"
	"time"

	"github.com/montelibero/npi/internal/engine"
	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/service"
)

// TxParams are the inputs of the transaction presence check.
type TxParams struct {
	Since        time.Time
	Account      model.Account
	Asset        string
	Issuer       string
	Counterparty model.Account
	Direction    engine.Direction
}

// CheckTx verifies that the account has at least one matching payment since
// the given instant.
func CheckTx(ctx context.Context, ledger service.LedgerQuery, params TxParams) (Result, error) {
	switch {
	case params.Account == "":
		return missingParam("account"), nil
	case params.Asset == "":
		return missingParam("asset"), nil
	case params.Since.IsZero():
		return missingParam("since"), nil
	}

	records, err := ledger.Payments(ctx, params.Account, params.Since)
	if err != nil {
		return Result{}, err
	}

	found := false
	for _, rec := range records {
		if !txAssetMatches(rec.Asset, params.Asset, params.Issuer) {
			continue
		}
		if engine.DirectionMatches(rec, params.Account, params.Direction, params.Counterparty) {
			found = true
			break
		}
	}

	slog.Debug("Transaction check result",
		"account", params.Account,
		"asset", params.Asset,
		"direction", params.Direction,
		"since", params.Since,
		"found", found)

	message := "Transaction found"
	if !found {
		message = "No matching transaction found"
	}

	return Result{
		Success: found,
		Message: message,
		Details: map[string]any{
			"account":      params.Account,
			"asset":        params.Asset,
			"issuer":       params.Issuer,
			"direction":    params.Direction,
			"since":        params.Since,
			"counterparty": params.Counterparty,
		},
	}, nil
}

// txAssetMatches keeps the looser instruction semantics: when no issuer is
// given an issued asset matches by code alone. The compliance engine never
// uses this; its filter always requires the issuer.
func txAssetMatches(asset model.AssetSpec, code, issuer string) bool {
	if asset.IsNative() {
		return code == model.NativeAssetCode
	}
	return asset.Code == code && (issuer == "" || asset.Issuer == issuer)
}
