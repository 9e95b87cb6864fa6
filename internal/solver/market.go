package solver

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// Market is one observed trading pair with its current per-unit price,
// expressed as quote base-units per base base-unit.
type Market struct {
	BaseID  domain.TokenID
	QuoteID domain.TokenID
	Price   decimal.Decimal
}

// PriceFor returns the per-unit price of the given token in terms of the
// market's other side, inverting when the token sits on the quote side.
func (m Market) PriceFor(id domain.TokenID) (decimal.Decimal, bool) {
	switch id {
	case m.BaseID:
		return m.Price, true
	case m.QuoteID:
		if m.Price.IsZero() {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(1).Div(m.Price), true
	default:
		return decimal.Zero, false
	}
}

// Counter returns the opposite side of the market for the given token.
func (m Market) Counter(id domain.TokenID) (domain.TokenID, bool) {
	switch id {
	case m.BaseID:
		return m.QuoteID, true
	case m.QuoteID:
		return m.BaseID, true
	default:
		return "", false
	}
}

// MarketSource looks up all markets quoting a token on either side.
// An empty result means the token is not traded anywhere.
type MarketSource interface {
	MarketsBy(ctx context.Context, id domain.TokenID) ([]Market, error)
}
