package domain

import "github.com/shopspring/decimal"

// ValuationUnits is the closed set of target units a raw token amount can be
// valued in. The two variants are CryptoUnits and FiatUnits; the split is
// enforced at the type level — each solver's Convert accepts only its own
// variant, so a fiat solver can never silently receive a crypto target.
type ValuationUnits interface {
	unitsTag()
}

// CryptoUnits values amounts in another on-chain asset.
type CryptoUnits struct {
	ID       TokenID `json:"id"`
	Ticker   string  `json:"ticker,omitempty"`
	Decimals int32   `json:"decimals"`
}

func (CryptoUnits) unitsTag() {}

// FiatUnits values amounts in a fiat currency with a fixed decimal count.
type FiatUnits struct {
	Currency string `json:"currency"`
	Decimals int32  `json:"decimals"`
}

func (FiatUnits) unitsTag() {}

// ErgUnits returns the native-asset crypto units, the bridge every fiat
// conversion is routed through.
func ErgUnits() CryptoUnits {
	return CryptoUnits{ID: NativeTokenID, Ticker: "ERG", Decimals: ErgDecimals}
}

// UsdUnits returns US dollar units at 2 decimals.
func UsdUnits() FiatUnits {
	return FiatUnits{Currency: "USD", Decimals: 2}
}

// AssetEquiv is the result of a conversion: the source amount expressed in the
// target units. Value is scaled by a price ratio from the source amount and is
// never negative; it is not rounded — presentation layers round to the units'
// declared scale.
type AssetEquiv struct {
	Amount AssetAmount     `json:"amount"`
	Units  ValuationUnits  `json:"units"`
	Value  decimal.Decimal `json:"value"`
}
