package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// AvgSlippage estimates the average price movement of a pool over the last
// depth trace entries below the current height. Traces are grouped into
// height buckets of the configured width; each bucket's movement is measured
// against the latest state preceding it, and the result is the mean across
// buckets. A pool with no history but existing info has zero slippage; a pool
// with neither returns nil. depth bounds the trace fetch, trading precision
// for query cost.
func (s *Service) AvgSlippage(ctx context.Context, id domain.PoolID, depth int) (*domain.PoolSlippage, error) {
	height, err := s.network.CurrentHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching current height: %w", err)
	}

	traces, err := s.pools.Trace(ctx, id, depth, height)
	if err != nil {
		return nil, fmt.Errorf("reading pool trace %s: %w", id, err)
	}
	anchor, err := s.pools.PrevTrace(ctx, id, depth, height)
	if err != nil {
		return nil, fmt.Errorf("reading pool trace anchor %s: %w", id, err)
	}

	if len(traces) == 0 {
		info, err := s.pools.Info(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reading pool info %s: %w", id, err)
		}
		if info == nil {
			return nil, nil
		}
		return &domain.PoolSlippage{AvgSlippagePercent: decimal.Zero}, nil
	}

	// Ascending by global index for boundary lookups.
	sorted := make([]domain.PoolTraceEntry, len(traces))
	copy(sorted, traces)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Gix < sorted[j].Gix })

	buckets := make(map[int64][]domain.PoolTraceEntry)
	for _, tr := range sorted {
		key := tr.Height / s.cfg.SlippageBucketWidth
		buckets[key] = append(buckets[key], tr)
	}
	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	slippages := make([]decimal.Decimal, 0, len(keys))
	for i, key := range keys {
		entries := buckets[key]
		last := entries[len(entries)-1]
		first := entries[0]

		var boundary domain.PoolTraceEntry
		if i == 0 {
			if anchor != nil {
				boundary = *anchor
			} else {
				boundary = sorted[0]
			}
		} else {
			prev, ok := latestBefore(sorted, first.Gix)
			if !ok {
				prev = first
			}
			boundary = prev
		}

		p0 := tracePrice(boundary)
		p1 := tracePrice(last)
		slippages = append(slippages, domain.SlippagePercent(p0, p1))
	}

	if len(slippages) == 1 {
		return &domain.PoolSlippage{AvgSlippagePercent: slippages[0].Round(domain.SlippageScale)}, nil
	}
	return &domain.PoolSlippage{AvgSlippagePercent: domain.Mean(slippages, domain.SlippageScale)}, nil
}

// latestBefore returns the latest entry with a global index strictly below
// gix. sorted must be ascending by Gix.
func latestBefore(sorted []domain.PoolTraceEntry, gix int64) (domain.PoolTraceEntry, bool) {
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].Gix >= gix })
	if idx == 0 {
		return domain.PoolTraceEntry{}, false
	}
	return sorted[idx-1], true
}

func tracePrice(tr domain.PoolTraceEntry) decimal.Decimal {
	return domain.SpotPrice(tr.LockedX, tr.LockedY, domain.PriceScale)
}
