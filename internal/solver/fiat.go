package solver

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// RateSource publishes fiat rates for crypto assets. A nil rate means no
// rate is published for the requested currency.
type RateSource interface {
	RateOf(ctx context.Context, id domain.TokenID, units domain.FiatUnits) (*decimal.Decimal, error)
}

// FiatSolver converts asset amounts into fiat by always bridging through the
// native asset: source -> ERG via the crypto solver, then ERG -> fiat via the
// published rate. Any absent intermediate short-circuits to a nil result.
type FiatSolver struct {
	crypto *CryptoSolver
	rates  RateSource
}

// NewFiatSolver creates a fiat price solver.
func NewFiatSolver(crypto *CryptoSolver, rates RateSource) *FiatSolver {
	if crypto == nil {
		panic("solver.NewFiatSolver: crypto is nil")
	}
	if rates == nil {
		panic("solver.NewFiatSolver: rates is nil")
	}
	return &FiatSolver{crypto: crypto, rates: rates}
}

// Convert values x in the target fiat units. The value is
// (bridged base-unit amount * rate) / 10^fiatDecimals, deliberately not
// rounded — callers round at presentation time.
func (s *FiatSolver) Convert(ctx context.Context, x domain.AssetAmount, units domain.FiatUnits, pools []domain.PoolSnapshot) (*domain.AssetEquiv, error) {
	erg, err := s.crypto.Convert(ctx, x, domain.ErgUnits(), pools)
	if err != nil {
		return nil, fmt.Errorf("bridging %s to native units: %w", x.ID, err)
	}
	if erg == nil {
		return nil, nil
	}

	rate, err := s.rates.RateOf(ctx, domain.NativeTokenID, units)
	if err != nil {
		return nil, fmt.Errorf("fetching %s rate: %w", units.Currency, err)
	}
	if rate == nil {
		return nil, nil
	}

	return &domain.AssetEquiv{
		Amount: x,
		Units:  units,
		Value:  erg.Value.Mul(*rate).Shift(-units.Decimals),
	}, nil
}
