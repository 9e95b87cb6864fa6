package stats

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

func statsFixture() *mockPools {
	return &mockPools{
		snapshots: []domain.PoolSnapshot{
			ergPool("p1", tokenA, 1000, 2_000_000_000),
			ergPool("p2", tokenB, 500, 1_000_000_000),
		},
		infos: map[domain.PoolID]*domain.PoolInfo{
			"p1": {ID: "p1", ConfirmedAt: 1},
			"p2": {ID: "p2", ConfirmedAt: 2},
		},
		volumes: map[domain.PoolID]*domain.PoolVolumeSnapshot{
			"p1": p1Volume(),
		},
		fees: map[domain.PoolID]*domain.PoolFeesSnapshot{
			"p1": {
				ID:    "p1",
				FeesX: domain.AssetAmount{ID: tokenA, Amount: 10},
				FeesY: domain.ErgAmount(10_000_000),
			},
		},
	}
}

func TestPoolStats(t *testing.T) {
	svc := newTestService(statsFixture(), &mockOrders{}, &mockNetwork{}, allTokens())

	st, err := svc.PoolStats(context.Background(), "p1", dayWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st == nil {
		t.Fatal("expected stats for a known pool")
	}

	if !st.TVL.Value.Equal(decimal.NewFromInt(20)) {
		t.Errorf("TVL = %s, want 20", st.TVL.Value)
	}
	if !st.Volume.Value.Equal(decimal.NewFromFloat(1.5)) {
		t.Errorf("Volume = %s, want 1.5", st.Volume.Value)
	}
	if !st.Fees.Value.Equal(decimal.NewFromFloat(0.15)) {
		t.Errorf("Fees = %s, want 0.15", st.Fees.Value)
	}
	// 0.15 over one day annualized against TVL 20: 0.15*365/20*100.
	if !st.YearlyFeesPercent.Equal(decimal.NewFromFloat(273.75)) {
		t.Errorf("YearlyFeesPercent = %s, want 273.75", st.YearlyFeesPercent)
	}
}

func TestPoolStatsUnknownPool(t *testing.T) {
	svc := newTestService(statsFixture(), &mockOrders{}, &mockNetwork{}, allTokens())

	st, err := svc.PoolStats(context.Background(), "nope", dayWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != nil {
		t.Error("expected nil for an unknown pool")
	}
}

func TestPoolsStatsExcludesUnindexedPool(t *testing.T) {
	pools := statsFixture()
	delete(pools.infos, "p2")
	svc := newTestService(pools, &mockOrders{}, &mockNetwork{}, allTokens())

	got, err := svc.PoolsStats(context.Background(), dayWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("got %d pools, want only p1", len(got))
	}
}

func TestPoolsStatsPreservesSnapshotOrder(t *testing.T) {
	svc := newTestService(statsFixture(), &mockOrders{}, &mockNetwork{}, allTokens())

	got, err := svc.PoolsStats(context.Background(), dayWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d pools, want 2", len(got))
	}
	if got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("order = [%s %s], want [p1 p2]", got[0].ID, got[1].ID)
	}
}

func TestPoolsStatsStrategiesAgree(t *testing.T) {
	pools := statsFixture()
	svc := newTestService(pools, &mockOrders{}, &mockNetwork{}, allTokens())

	naive, err := svc.PoolsStats(context.Background(), dayWindow())
	if err != nil {
		t.Fatalf("naive: unexpected error: %v", err)
	}
	batched, err := svc.PoolsStatsV2(context.Background(), dayWindow())
	if err != nil {
		t.Fatalf("batched: unexpected error: %v", err)
	}

	if len(naive) != len(batched) {
		t.Fatalf("naive returned %d pools, batched %d", len(naive), len(batched))
	}
	for i := range naive {
		n, b := naive[i], batched[i]
		if n.ID != b.ID {
			t.Errorf("pool %d: id %s vs %s", i, n.ID, b.ID)
		}
		if !n.TVL.Value.Equal(b.TVL.Value) {
			t.Errorf("pool %s: TVL %s vs %s", n.ID, n.TVL.Value, b.TVL.Value)
		}
		if !n.Volume.Value.Equal(b.Volume.Value) {
			t.Errorf("pool %s: volume %s vs %s", n.ID, n.Volume.Value, b.Volume.Value)
		}
		if !n.Fees.Value.Equal(b.Fees.Value) {
			t.Errorf("pool %s: fees %s vs %s", n.ID, n.Fees.Value, b.Fees.Value)
		}
		if !n.YearlyFeesPercent.Equal(b.YearlyFeesPercent) {
			t.Errorf("pool %s: yield %s vs %s", n.ID, n.YearlyFeesPercent, b.YearlyFeesPercent)
		}
	}
}

func TestPoolsSummaryPicksHighestTVLPerPair(t *testing.T) {
	// Two pools for the tokenA/ERG pair; the deeper one is canonical.
	pools := &mockPools{
		snapshots: []domain.PoolSnapshot{
			ergPool("p1", tokenA, 1000, 2_000_000_000),
			ergPool("p1-old", tokenA, 1000, 1_000_000_000),
		},
	}
	svc := newTestService(pools, &mockOrders{}, &mockNetwork{}, allTokens())

	got, err := svc.PoolsSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got))
	}
	if got[0].ID != "p1" {
		t.Errorf("canonical pool = %s, want p1", got[0].ID)
	}
	// 2 ERG per 1000 tokenA base units.
	if !got[0].LastPrice.Equal(decimal.NewFromFloat(0.002)) {
		t.Errorf("LastPrice = %s, want 0.002", got[0].LastPrice)
	}
}

func TestPoolsSummarySkipsNonNativePairs(t *testing.T) {
	pools := &mockPools{
		snapshots: []domain.PoolSnapshot{
			{
				ID:      "p3",
				LockedX: domain.AssetAmount{ID: tokenA, Amount: 1000},
				LockedY: domain.AssetAmount{ID: tokenB, Amount: 500},
			},
		},
	}
	svc := newTestService(pools, &mockOrders{}, &mockNetwork{}, allTokens())

	got, err := svc.PoolsSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d summaries for a token/token pool, want 0", len(got))
	}
}
