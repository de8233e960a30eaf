// Package model defines the core domain types shared across the application.
package model

// Account is an opaque ledger account identifier.
type Account string

// NativeAssetCode is the asset code that marks the ledger's native asset in
// an AssetSpec.
const NativeAssetCode = "XLM"

// AssetSpec identifies an asset by code and issuing account. The native asset
// carries no issuer.
//
// A spec with a non-native code and an empty issuer matches balances by code
// alone. Payment matching never accepts that: a payment in an asset with the
// right code but the wrong issuer must not match.
type AssetSpec struct {
	Code   string
	Issuer string
}

// NativeAsset returns the spec for the ledger's native asset.
func NativeAsset() AssetSpec {
	return AssetSpec{Code: NativeAssetCode}
}

// IsNative reports whether the spec refers to the ledger's native asset.
func (a AssetSpec) IsNative() bool {
	return a.Code == NativeAssetCode
}

// Balance is a single asset balance held by an account. The amount stays in
// the ledger's decimal string representation.
type Balance struct {
	Asset  AssetSpec
	Amount string
}

// PersonalToken is the asset a member uses to pay membership fees.
type PersonalToken struct {
	Code   string
	Issuer string
}

// AssetSpec returns the token as an asset spec for payment matching.
func (t PersonalToken) AssetSpec() AssetSpec {
	return AssetSpec{Code: t.Code, Issuer: t.Issuer}
}

// Member is a chat member as reported by the chat directory. The handle may
// or may not resolve to a ledger account.
type Member struct {
	Handle string
}
