package domain

import "github.com/shopspring/decimal"

// PriceScale is the display scale of spot prices and chart points.
const PriceScale int32 = 6

// SlippageScale is the display scale of slippage percentages.
const SlippageScale int32 = 2

// YieldScale is the display scale of annualized fee yield percentages.
const YieldScale int32 = 2

const millisPerDay int64 = 24 * 60 * 60 * 1000

// SpotPrice computes the quote-per-base pool price after decimal
// normalization: (amountY / 10^decY) / (amountX / 10^decX), rounded to scale.
// Returns zero when the base reserve is empty.
func SpotPrice(x, y AssetAmount, scale int32) decimal.Decimal {
	nx := x.Normalized()
	if nx.IsZero() {
		return decimal.Zero
	}
	return y.Normalized().DivRound(nx, scale)
}

// YearlyFeesPercent projects the fee yield of a window to a full year as a
// percentage of TVL: (fees / window) * year / tvl * 100. Returns zero when
// TVL or the window is zero.
func YearlyFeesPercent(fees, tvl decimal.Decimal, windowMillis int64, annualizationDays int) decimal.Decimal {
	if tvl.IsZero() || windowMillis <= 0 {
		return decimal.Zero
	}
	yearMillis := decimal.NewFromInt(int64(annualizationDays) * millisPerDay)
	window := decimal.NewFromInt(windowMillis)
	return fees.Div(window).
		Mul(yearMillis).
		Div(tvl).
		Mul(decimal.NewFromInt(100)).
		Round(YieldScale)
}

// SlippagePercent is the relative movement from p0 to p1 in percent:
// |p1 - p0| / (p0 / 100). Returns zero when the reference price is zero.
func SlippagePercent(p0, p1 decimal.Decimal) decimal.Decimal {
	if p0.IsZero() {
		return decimal.Zero
	}
	return p1.Sub(p0).Abs().Div(p0.Shift(-2))
}

// Mean returns the arithmetic mean of values rounded to scale, zero for an
// empty input.
func Mean(values []decimal.Decimal, scale int32) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(values))), scale)
}
