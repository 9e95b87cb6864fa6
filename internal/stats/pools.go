package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// maxConcurrentPools caps the naive strategy's per-pool fan-out.
const maxConcurrentPools = 8

// PoolsSummary reports every pool paired directly against the native asset,
// restricted to pools active over the trailing day. When several pools exist
// for the same pair, only the one with the highest TVL is reported — migrated
// pools leave stale duplicates behind.
func (s *Service) PoolsSummary(ctx context.Context) ([]domain.PoolSummary, error) {
	snapshots, err := s.pools.Snapshots(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("reading recent pool snapshots: %w", err)
	}

	type candidate struct {
		summary domain.PoolSummary
		tvl     decimal.Decimal
	}
	best := make(map[domain.TokenID]candidate)

	for _, sn := range snapshots {
		base, quote := sn.LockedX, sn.LockedY
		switch {
		case quote.IsNative():
		case base.IsNative():
			base, quote = quote, base
		default:
			continue
		}

		tvl := decimal.Zero
		for _, side := range []domain.AssetAmount{sn.LockedX, sn.LockedY} {
			v, err := s.fiatValue(ctx, side, nil)
			if err != nil {
				return nil, err
			}
			tvl = tvl.Add(v)
		}

		prev, seen := best[base.ID]
		if seen && prev.tvl.GreaterThanOrEqual(tvl) {
			continue
		}
		best[base.ID] = candidate{
			summary: domain.PoolSummary{
				ID:          sn.ID,
				BaseID:      base.ID,
				BaseTicker:  base.Ticker,
				QuoteID:     quote.ID,
				QuoteTicker: quote.Ticker,
				LastPrice:   domain.SpotPrice(base, quote, domain.PriceScale),
				TVL: domain.TotalValueLocked{
					Value: tvl.Round(s.cfg.Fiat.Decimals),
					Units: s.cfg.Fiat,
				},
			},
			tvl: tvl,
		}
	}

	summaries := lo.MapToSlice(best, func(_ domain.TokenID, c candidate) domain.PoolSummary {
		return c.summary
	})
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].BaseID < summaries[j].BaseID })
	return summaries, nil
}

// PoolsStats computes per-pool statistics with the naive strategy: every pool
// runs its own info/fees/volume queries and market-index conversions, fanned
// out concurrently. The result preserves snapshot order; a pool that fails is
// skipped, never aborting the batch.
func (s *Service) PoolsStats(ctx context.Context, w domain.TimeWindow) ([]domain.PoolStats, error) {
	snapshots, err := s.pools.Snapshots(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("reading pool snapshots: %w", err)
	}

	results := make([]*domain.PoolStats, len(snapshots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPools)
	for i, sn := range snapshots {
		g.Go(func() error {
			st, err := s.singlePoolStats(gctx, sn, w)
			if err != nil {
				slog.Warn("pool stats computation failed", "pool", sn.ID, "error", err)
				return nil
			}
			results[i] = st
			return nil
		})
	}
	// Tasks swallow their own errors; Wait only observes ctx cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.PoolStats, 0, len(results))
	for _, st := range results {
		if st != nil {
			out = append(out, *st)
		}
	}
	return out, nil
}

// PoolsStatsV2 computes the same statistics with the batched strategy: one
// store scope yields every pool's state, then stats are assembled
// sequentially with the full pool set driving each conversion, so no per-pool
// market lookups are issued. Output is numerically identical to PoolsStats
// for the same store state.
func (s *Service) PoolsStatsV2(ctx context.Context, w domain.TimeWindow) ([]domain.PoolStats, error) {
	states, err := s.pools.SelectAllPoolStates(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("reading pool states: %w", err)
	}

	known := lo.Map(states, func(st domain.PoolState, _ int) domain.PoolSnapshot { return st.Pool })

	out := make([]domain.PoolStats, 0, len(states))
	for _, st := range states {
		ps, err := s.assemblePoolStats(ctx, st, w, known)
		if err != nil {
			slog.Warn("pool stats computation failed", "pool", st.Pool.ID, "error", err)
			continue
		}
		if ps != nil {
			out = append(out, *ps)
		}
	}
	return out, nil
}

// PoolStats computes statistics for a single pool. Returns nil when the pool
// is unknown or either reserve has no fiat price.
func (s *Service) PoolStats(ctx context.Context, id domain.PoolID, w domain.TimeWindow) (*domain.PoolStats, error) {
	sn, err := s.pools.Snapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading pool snapshot %s: %w", id, err)
	}
	if sn == nil {
		return nil, nil
	}

	info, err := s.pools.Info(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading pool info %s: %w", id, err)
	}
	if info == nil {
		return nil, nil
	}

	fv, err := s.pools.FeesAndVolumes(ctx, id, w)
	if err != nil {
		return nil, fmt.Errorf("reading pool fees and volumes %s: %w", id, err)
	}

	state := domain.PoolState{Pool: *sn, Info: info}
	if fv != nil {
		state.Fees = &fv.Fees
		state.Volume = &fv.Volume
	}
	return s.assemblePoolStats(ctx, state, w, nil)
}

// singlePoolStats is the naive strategy's per-pool pipeline: independent
// info, fees and volume queries, market-index conversions.
func (s *Service) singlePoolStats(ctx context.Context, sn domain.PoolSnapshot, w domain.TimeWindow) (*domain.PoolStats, error) {
	info, err := s.pools.Info(ctx, sn.ID)
	if err != nil {
		return nil, fmt.Errorf("reading pool info %s: %w", sn.ID, err)
	}
	if info == nil {
		// Not yet fully indexed; excluded without error.
		return nil, nil
	}

	fees, err := s.pools.Fees(ctx, sn.ID, w)
	if err != nil {
		return nil, fmt.Errorf("reading pool fees %s: %w", sn.ID, err)
	}
	volume, err := s.pools.Volume(ctx, sn.ID, w)
	if err != nil {
		return nil, fmt.Errorf("reading pool volume %s: %w", sn.ID, err)
	}

	state := domain.PoolState{Pool: sn, Info: info, Fees: fees, Volume: volume}
	return s.assemblePoolStats(ctx, state, w, nil)
}

// assemblePoolStats is the shared numeric core of all three entry points.
// known carries the full pool set on the batched path and is nil on the
// naive path; both resolve to the same reserve-ratio prices.
func (s *Service) assemblePoolStats(ctx context.Context, st domain.PoolState, w domain.TimeWindow, known []domain.PoolSnapshot) (*domain.PoolStats, error) {
	if st.Info == nil {
		return nil, nil
	}

	vx, err := s.fiat.Convert(ctx, st.Pool.LockedX, s.cfg.Fiat, known)
	if err != nil {
		return nil, err
	}
	vy, err := s.fiat.Convert(ctx, st.Pool.LockedY, s.cfg.Fiat, known)
	if err != nil {
		return nil, err
	}
	if vx == nil || vy == nil {
		return nil, nil
	}
	tvl := vx.Value.Add(vy.Value).Round(s.cfg.Fiat.Decimals)

	feesValue := decimal.Zero
	if st.Fees != nil {
		for _, side := range []domain.AssetAmount{st.Fees.FeesX, st.Fees.FeesY} {
			v, err := s.fiatValue(ctx, side, known)
			if err != nil {
				return nil, err
			}
			feesValue = feesValue.Add(v)
		}
	}

	volumeValue := decimal.Zero
	if st.Volume != nil {
		for _, side := range []domain.AssetAmount{st.Volume.VolumeX, st.Volume.VolumeY} {
			v, err := s.fiatValue(ctx, side, known)
			if err != nil {
				return nil, err
			}
			volumeValue = volumeValue.Add(v)
		}
	}

	feesValue = feesValue.Round(s.cfg.Fiat.Decimals)
	volumeValue = volumeValue.Round(s.cfg.Fiat.Decimals)

	duration := w.DurationMillis(s.now(), s.cfg.DefaultWindow)
	yield := domain.YearlyFeesPercent(feesValue, tvl, duration, s.cfg.AnnualizationDays)

	return &domain.PoolStats{
		ID:                st.Pool.ID,
		LockedX:           st.Pool.LockedX,
		LockedY:           st.Pool.LockedY,
		TVL:               domain.TotalValueLocked{Value: tvl, Units: s.cfg.Fiat},
		Volume:            domain.Volume{Value: volumeValue, Units: s.cfg.Fiat, Window: w},
		Fees:              domain.Fees{Value: feesValue, Units: s.cfg.Fiat, Window: w},
		YearlyFeesPercent: yield,
	}, nil
}
