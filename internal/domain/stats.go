package domain

import "github.com/shopspring/decimal"

// TotalValueLocked is the fiat-equivalent value of reserves.
type TotalValueLocked struct {
	Value decimal.Decimal `json:"value"`
	Units FiatUnits       `json:"units"`
}

// Volume is the fiat-equivalent traded value over a window.
type Volume struct {
	Value  decimal.Decimal `json:"value"`
	Units  FiatUnits       `json:"units"`
	Window TimeWindow      `json:"window"`
}

// Fees is the fiat-equivalent accrued fee value over a window.
type Fees struct {
	Value  decimal.Decimal `json:"value"`
	Units  FiatUnits       `json:"units"`
	Window TimeWindow      `json:"window"`
}

// PlatformSummary aggregates TVL and volume across all allow-listed pools.
type PlatformSummary struct {
	TVL    TotalValueLocked `json:"tvl"`
	Volume Volume           `json:"volume"`
}

// PoolStats is the full per-pool statistics record.
type PoolStats struct {
	ID                PoolID           `json:"id"`
	LockedX           AssetAmount      `json:"lockedX"`
	LockedY           AssetAmount      `json:"lockedY"`
	TVL               TotalValueLocked `json:"tvl"`
	Volume            Volume           `json:"volume"`
	Fees              Fees             `json:"fees"`
	YearlyFeesPercent decimal.Decimal  `json:"yearlyFeesPercent"`
}

// PoolSummary describes one native-paired pool: the minted token as base,
// ERG as quote, spot price from current reserves.
type PoolSummary struct {
	ID          PoolID           `json:"id"`
	BaseID      TokenID          `json:"baseId"`
	BaseTicker  string           `json:"baseSymbol,omitempty"`
	QuoteID     TokenID          `json:"quoteId"`
	QuoteTicker string           `json:"quoteSymbol,omitempty"`
	LastPrice   decimal.Decimal  `json:"lastPrice"`
	TVL         TotalValueLocked `json:"tvl"`
}

// PoolSlippage is the estimated average price movement over a lookback depth,
// in percent.
type PoolSlippage struct {
	AvgSlippagePercent decimal.Decimal `json:"avgSlippagePercent"`
}

// PricePoint is one sample of a pool price series.
type PricePoint struct {
	Timestamp int64           `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

// TransactionsInfo summarizes fiat-converted transaction volume for a window.
type TransactionsInfo struct {
	NumTxs   int64           `json:"numTxs"`
	AvgValue decimal.Decimal `json:"avgValue"`
	MaxValue decimal.Decimal `json:"maxValue"`
	Units    FiatUnits       `json:"units"`
}

// EmptyTransactionsInfo is the zero summary for a window with no transactions.
func EmptyTransactionsInfo(units FiatUnits) TransactionsInfo {
	return TransactionsInfo{
		AvgValue: decimal.Zero,
		MaxValue: decimal.Zero,
		Units:    units,
	}
}
