package stats

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// SwapVolume summarizes fiat-converted swap activity for a window. Records
// whose asset has no price path still count toward the transaction total but
// contribute nothing to volume.
func (s *Service) SwapVolume(ctx context.Context, w domain.TimeWindow) (domain.TransactionsInfo, error) {
	records, err := s.orders.SwapTxs(ctx, w)
	if err != nil {
		return domain.TransactionsInfo{}, fmt.Errorf("reading swap transactions: %w", err)
	}
	if len(records) == 0 {
		return domain.EmptyTransactionsInfo(s.cfg.Fiat), nil
	}

	total, maxValue := decimal.Zero, decimal.Zero
	var numTxs int64
	for _, rec := range records {
		numTxs += rec.NumTxs

		eq, err := s.fiat.Convert(ctx, rec.Asset, s.cfg.Fiat, nil)
		if err != nil {
			return domain.TransactionsInfo{}, err
		}
		if eq == nil {
			continue
		}
		total = total.Add(eq.Value)
		if eq.Value.GreaterThan(maxValue) {
			maxValue = eq.Value
		}
	}

	return s.transactionsInfo(numTxs, total, maxValue), nil
}

// DepositVolume summarizes fiat-converted deposit activity for a window.
// Deposits span both pool sides; a record contributes to volume only when
// BOTH sides convert — a half-priced deposit is discarded entirely, unlike
// the platform summary's per-side tolerance.
func (s *Service) DepositVolume(ctx context.Context, w domain.TimeWindow) (domain.TransactionsInfo, error) {
	records, err := s.orders.DepositTxs(ctx, w)
	if err != nil {
		return domain.TransactionsInfo{}, fmt.Errorf("reading deposit transactions: %w", err)
	}
	if len(records) == 0 {
		return domain.EmptyTransactionsInfo(s.cfg.Fiat), nil
	}

	total, maxValue := decimal.Zero, decimal.Zero
	var numTxs int64
	for _, rec := range records {
		numTxs += rec.NumTxs

		ex, err := s.fiat.Convert(ctx, rec.AssetX, s.cfg.Fiat, nil)
		if err != nil {
			return domain.TransactionsInfo{}, err
		}
		ey, err := s.fiat.Convert(ctx, rec.AssetY, s.cfg.Fiat, nil)
		if err != nil {
			return domain.TransactionsInfo{}, err
		}
		if ex == nil || ey == nil {
			continue
		}

		value := ex.Value.Add(ey.Value)
		total = total.Add(value)
		if value.GreaterThan(maxValue) {
			maxValue = value
		}
	}

	return s.transactionsInfo(numTxs, total, maxValue), nil
}

func (s *Service) transactionsInfo(numTxs int64, total, maxValue decimal.Decimal) domain.TransactionsInfo {
	avg := decimal.Zero
	if numTxs > 0 {
		avg = total.DivRound(decimal.NewFromInt(numTxs), s.cfg.Fiat.Decimals)
	}
	return domain.TransactionsInfo{
		NumTxs:   numTxs,
		AvgValue: avg,
		MaxValue: maxValue.Round(s.cfg.Fiat.Decimals),
		Units:    s.cfg.Fiat,
	}
}
