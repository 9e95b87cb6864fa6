package solver

import (
	"context"
	"fmt"
	"sort"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// CryptoSolver converts asset amounts into another crypto asset via an
// observed market price. Absence of a price path is a nil result, not an
// error; errors are reserved for market-source failures.
type CryptoSolver struct {
	markets MarketSource
}

// NewCryptoSolver creates a crypto price solver backed by the given market
// index.
func NewCryptoSolver(markets MarketSource) *CryptoSolver {
	if markets == nil {
		panic("solver.NewCryptoSolver: markets is nil")
	}
	return &CryptoSolver{markets: markets}
}

// Convert values x in the target crypto units. When source and target match
// the equivalence is the exact identity. When pools is non-empty the price is
// resolved from those pools' reserve ratios only, skipping the market index —
// the batched fast path for callers that already hold the full pool set.
func (s *CryptoSolver) Convert(ctx context.Context, x domain.AssetAmount, units domain.CryptoUnits, pools []domain.PoolSnapshot) (*domain.AssetEquiv, error) {
	if x.ID == units.ID {
		return &domain.AssetEquiv{Amount: x, Units: units, Value: x.Decimal()}, nil
	}

	if len(pools) > 0 {
		return convertVia(MarketsFromPools(pools, x.ID), x, units), nil
	}

	markets, err := s.markets.MarketsBy(ctx, x.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up markets for %s: %w", x.ID, err)
	}
	return convertVia(markets, x, units), nil
}

// convertVia picks the first market whose counter asset matches the target
// and scales the source amount by its per-unit price.
func convertVia(markets []Market, x domain.AssetAmount, units domain.CryptoUnits) *domain.AssetEquiv {
	for _, m := range markets {
		counter, ok := m.Counter(x.ID)
		if !ok || counter != units.ID {
			continue
		}
		price, ok := m.PriceFor(x.ID)
		if !ok {
			continue
		}
		return &domain.AssetEquiv{
			Amount: x,
			Units:  units,
			Value:  x.Decimal().Mul(price),
		}
	}
	return nil
}

// MarketFromPool derives the market implied by a pool's reserve ratio.
// Pools with an empty side carry no price.
func MarketFromPool(p domain.PoolSnapshot) (Market, bool) {
	if p.LockedX.Amount == 0 || p.LockedY.Amount == 0 {
		return Market{}, false
	}
	return Market{
		BaseID:  p.LockedX.ID,
		QuoteID: p.LockedY.ID,
		Price:   p.LockedY.Decimal().Div(p.LockedX.Decimal()),
	}, true
}

// MarketsFromPools derives markets for a token from the supplied pool set,
// deepest source-side liquidity first so duplicate pairs resolve to the
// canonical pool.
func MarketsFromPools(pools []domain.PoolSnapshot, id domain.TokenID) []Market {
	var matching []domain.PoolSnapshot
	for _, p := range pools {
		if p.Contains(id) {
			matching = append(matching, p)
		}
	}

	sourceDepth := func(p domain.PoolSnapshot) uint64 {
		if p.LockedX.ID == id {
			return p.LockedX.Amount
		}
		return p.LockedY.Amount
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return sourceDepth(matching[i]) > sourceDepth(matching[j])
	})

	markets := make([]Market, 0, len(matching))
	for _, p := range matching {
		if m, ok := MarketFromPool(p); ok {
			markets = append(markets, m)
		}
	}
	return markets
}
