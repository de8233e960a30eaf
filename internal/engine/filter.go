package engine

import "github.com/montelibero/npi/internal/model"

// Direction constrains which side of a payment the checked account must be on.
type Direction string

const (
	// DirectionAny accepts payments on either side of the account.
	DirectionAny Direction = ""
	// DirectionIn accepts payments received by the account.
	DirectionIn Direction = "in"
	// DirectionOut accepts payments sent by the account.
	DirectionOut Direction = "out"
)

// Matches reports whether a payment record satisfies the asset spec, the
// direction relative to account, and the optional counterparty.
//
// Asset matching here is strict: a non-native spec requires both code and
// issuer to match. Balance lookups may fall back to a code-only match; a
// payment in an asset with the right code but the wrong issuer never counts.
func Matches(rec model.PaymentRecord, account model.Account, spec model.AssetSpec, dir Direction, counterparty model.Account) bool {
	if !assetMatches(rec.Asset, spec) {
		return false
	}
	return DirectionMatches(rec, account, dir, counterparty)
}

func assetMatches(asset, spec model.AssetSpec) bool {
	if spec.IsNative() {
		return asset.IsNative()
	}
	return asset.Code == spec.Code && asset.Issuer == spec.Issuer
}

// DirectionMatches reports whether a payment involves the account on the
// required side, with the counterparty on the other side when one is given.
// With no direction the record only has to survive the counterparty check,
// since fetched records are already scoped to the account.
func DirectionMatches(rec model.PaymentRecord, account model.Account, dir Direction, counterparty model.Account) bool {
	switch dir {
	case DirectionIn:
		return rec.To == account && (counterparty == "" || rec.From == counterparty)
	case DirectionOut:
		return rec.From == account && (counterparty == "" || rec.To == counterparty)
	default:
		return counterparty == "" || rec.From == counterparty || rec.To == counterparty
	}
}
