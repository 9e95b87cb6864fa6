package stats

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

func TestPriceChart(t *testing.T) {
	pools := &mockPools{
		snapshots: []domain.PoolSnapshot{ergPool("p1", tokenA, 1000, 2_000_000_000)},
		avg: []domain.AvgAssetAmounts{
			{AmountX: 1000, AmountY: 2_000_000_000, Timestamp: 1_000},
			{AmountX: 1000, AmountY: 2_500_000_000, Timestamp: 2_000},
		},
	}
	svc := newTestService(pools, &mockOrders{}, &mockNetwork{}, allTokens())

	got, err := svc.PriceChart(context.Background(), "p1", dayWindow(), 60_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2", len(got))
	}
	if got[0].Timestamp != 1_000 || got[1].Timestamp != 2_000 {
		t.Errorf("timestamps = [%d %d], want [1000 2000]", got[0].Timestamp, got[1].Timestamp)
	}
	if !got[0].Price.Equal(decimal.NewFromFloat(0.002)) {
		t.Errorf("first price = %s, want 0.002", got[0].Price)
	}
	if !got[1].Price.Equal(decimal.NewFromFloat(0.0025)) {
		t.Errorf("second price = %s, want 0.0025", got[1].Price)
	}
}

func TestPriceChartUnknownPool(t *testing.T) {
	svc := newTestService(&mockPools{}, &mockOrders{}, &mockNetwork{}, allTokens())

	got, err := svc.PriceChart(context.Background(), "nope", dayWindow(), 60_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want an empty series", got)
	}
}
