package stats

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// PlatformSummary aggregates TVL and traded volume across every pool whose
// assets are on the registry allow-list. Pools holding unverified tokens are
// discarded so spam listings cannot inflate the totals; a side with no price
// path contributes zero rather than failing the summary.
func (s *Service) PlatformSummary(ctx context.Context, w domain.TimeWindow) (domain.PlatformSummary, error) {
	snapshots, volumes, err := s.pools.SelectPlatformState(ctx, w)
	if err != nil {
		return domain.PlatformSummary{}, fmt.Errorf("reading platform state: %w", err)
	}

	allow, err := s.tokens.FetchTokens(ctx)
	if err != nil {
		return domain.PlatformSummary{}, fmt.Errorf("fetching token allow-list: %w", err)
	}

	allowed := func(id domain.TokenID) bool {
		if id == domain.NativeTokenID {
			return true
		}
		_, ok := allow[id]
		return ok
	}

	tvl := decimal.Zero
	valid := make(map[domain.PoolID]bool, len(snapshots))
	for _, sn := range snapshots {
		if !allowed(sn.LockedX.ID) || !allowed(sn.LockedY.ID) {
			continue
		}
		valid[sn.ID] = true

		for _, side := range []domain.AssetAmount{sn.LockedX, sn.LockedY} {
			v, err := s.fiatValue(ctx, side, nil)
			if err != nil {
				return domain.PlatformSummary{}, err
			}
			tvl = tvl.Add(v)
		}
	}

	volume := decimal.Zero
	for _, vol := range volumes {
		if !valid[vol.ID] {
			continue
		}
		for _, side := range []domain.AssetAmount{vol.VolumeX, vol.VolumeY} {
			v, err := s.fiatValue(ctx, side, nil)
			if err != nil {
				return domain.PlatformSummary{}, err
			}
			volume = volume.Add(v)
		}
	}

	return domain.PlatformSummary{
		TVL: domain.TotalValueLocked{
			Value: tvl.Round(s.cfg.Fiat.Decimals),
			Units: s.cfg.Fiat,
		},
		Volume: domain.Volume{
			Value:  volume.Round(s.cfg.Fiat.Decimals),
			Units:  s.cfg.Fiat,
			Window: w,
		},
	}, nil
}
