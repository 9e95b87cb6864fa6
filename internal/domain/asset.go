package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TokenID is the hex-encoded identifier of an on-chain token.
type TokenID string

// NativeTokenID is the synthetic identifier used for the network's native asset (ERG).
// The native asset has no minting box, so the indexer stores it under the all-zero id.
const NativeTokenID TokenID = "0000000000000000000000000000000000000000000000000000000000000000"

// ErgDecimals is the decimal count of the native asset (1 ERG = 10^9 nanoERG).
const ErgDecimals int32 = 9

// AssetInfo describes a token as recorded by the indexer.
type AssetInfo struct {
	ID       TokenID `json:"id"`
	Ticker   string  `json:"ticker,omitempty"`
	Decimals int32   `json:"decimals"`
}

// AssetAmount is an integer amount of a token in base units.
// Decimals is 0 when the token declares none; scaling treats that as scale 0.
type AssetAmount struct {
	ID       TokenID `json:"id"`
	Amount   uint64  `json:"amount"`
	Ticker   string  `json:"ticker,omitempty"`
	Decimals int32   `json:"decimals"`
}

// IsNative reports whether the amount is denominated in the native asset.
func (a AssetAmount) IsNative() bool {
	return a.ID == NativeTokenID
}

// Decimal returns the raw base-unit amount as an arbitrary-precision decimal.
// uint64 amounts are promoted through big.Int so reserves above int64 range survive.
func (a AssetAmount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(a.Amount), 0)
}

// Normalized returns the amount scaled down by the token's declared decimals.
func (a AssetAmount) Normalized() decimal.Decimal {
	return a.Decimal().Shift(-a.Decimals)
}

// Amount builds an AssetAmount of n base units of this asset.
func (i AssetInfo) Amount(n uint64) AssetAmount {
	return AssetAmount{
		ID:       i.ID,
		Amount:   n,
		Ticker:   i.Ticker,
		Decimals: i.Decimals,
	}
}

// ErgAmount builds an amount of n nanoERG.
func ErgAmount(n uint64) AssetAmount {
	return AssetAmount{
		ID:       NativeTokenID,
		Amount:   n,
		Ticker:   "ERG",
		Decimals: ErgDecimals,
	}
}
