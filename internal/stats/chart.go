package stats

import (
	"context"
	"fmt"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// PriceChart resamples a pool's average reserves into a price series at the
// given bucket resolution (milliseconds per bucket). An unindexed pool yields
// an empty series, not an error. Decimals come from the current snapshot —
// token decimal configuration does not change over a pool's life.
func (s *Service) PriceChart(ctx context.Context, id domain.PoolID, w domain.TimeWindow, resolution int) ([]domain.PricePoint, error) {
	sn, err := s.pools.Snapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading pool snapshot %s: %w", id, err)
	}
	if sn == nil {
		return []domain.PricePoint{}, nil
	}

	amounts, err := s.pools.AvgAmounts(ctx, id, w, resolution)
	if err != nil {
		return nil, fmt.Errorf("reading pool average amounts %s: %w", id, err)
	}

	points := make([]domain.PricePoint, 0, len(amounts))
	for _, a := range amounts {
		x := domain.AssetAmount{ID: sn.LockedX.ID, Amount: a.AmountX, Decimals: sn.LockedX.Decimals}
		y := domain.AssetAmount{ID: sn.LockedY.ID, Amount: a.AmountY, Decimals: sn.LockedY.Decimals}
		points = append(points, domain.PricePoint{
			Timestamp: a.Timestamp,
			Price:     domain.SpotPrice(x, y, domain.PriceScale),
		})
	}
	return points, nil
}
