package stats

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
	"github.com/ergoplatform/dex-stats/internal/solver"
)

// poolMarketSource derives market prices from a fixed pool set, mirroring
// what the production market index computes from the latest snapshots.
type poolMarketSource struct {
	pools []domain.PoolSnapshot
}

func (p *poolMarketSource) MarketsBy(_ context.Context, id domain.TokenID) ([]solver.Market, error) {
	var markets []solver.Market
	for _, pool := range p.pools {
		if !pool.Contains(id) {
			continue
		}
		if m, ok := solver.MarketFromPool(pool); ok {
			markets = append(markets, m)
		}
	}
	return markets, nil
}

type fixedRates struct {
	rate *decimal.Decimal
}

func (f *fixedRates) RateOf(_ context.Context, _ domain.TokenID, _ domain.FiatUnits) (*decimal.Decimal, error) {
	return f.rate, nil
}

type mockPools struct {
	snapshots []domain.PoolSnapshot
	infos     map[domain.PoolID]*domain.PoolInfo
	volumes   map[domain.PoolID]*domain.PoolVolumeSnapshot
	fees      map[domain.PoolID]*domain.PoolFeesSnapshot
	traces    []domain.PoolTraceEntry
	prevTrace *domain.PoolTraceEntry
	avg       []domain.AvgAssetAmounts
	assets    map[domain.TokenID]*domain.AssetInfo
}

func (m *mockPools) Snapshots(_ context.Context, _ bool) ([]domain.PoolSnapshot, error) {
	return m.snapshots, nil
}

func (m *mockPools) Snapshot(_ context.Context, id domain.PoolID) (*domain.PoolSnapshot, error) {
	for _, sn := range m.snapshots {
		if sn.ID == id {
			return &sn, nil
		}
	}
	return nil, nil
}

func (m *mockPools) Info(_ context.Context, id domain.PoolID) (*domain.PoolInfo, error) {
	return m.infos[id], nil
}

func (m *mockPools) Volumes(_ context.Context, _ domain.TimeWindow) ([]domain.PoolVolumeSnapshot, error) {
	var out []domain.PoolVolumeSnapshot
	for _, sn := range m.snapshots {
		if v := m.volumes[sn.ID]; v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockPools) Volume(_ context.Context, id domain.PoolID, _ domain.TimeWindow) (*domain.PoolVolumeSnapshot, error) {
	return m.volumes[id], nil
}

func (m *mockPools) Fees(_ context.Context, id domain.PoolID, _ domain.TimeWindow) (*domain.PoolFeesSnapshot, error) {
	return m.fees[id], nil
}

func (m *mockPools) FeesAndVolumes(_ context.Context, id domain.PoolID, _ domain.TimeWindow) (*domain.PoolFeesAndVolumes, error) {
	f, v := m.fees[id], m.volumes[id]
	if f == nil && v == nil {
		return nil, nil
	}
	out := &domain.PoolFeesAndVolumes{}
	if f != nil {
		out.Fees = *f
	}
	if v != nil {
		out.Volume = *v
	}
	return out, nil
}

func (m *mockPools) Trace(_ context.Context, _ domain.PoolID, depth int, _ int64) ([]domain.PoolTraceEntry, error) {
	if depth > 0 && depth < len(m.traces) {
		return m.traces[:depth], nil
	}
	return m.traces, nil
}

func (m *mockPools) PrevTrace(_ context.Context, _ domain.PoolID, _ int, _ int64) (*domain.PoolTraceEntry, error) {
	return m.prevTrace, nil
}

func (m *mockPools) AvgAmounts(_ context.Context, _ domain.PoolID, _ domain.TimeWindow, _ int) ([]domain.AvgAssetAmounts, error) {
	return m.avg, nil
}

func (m *mockPools) AssetByID(_ context.Context, id domain.TokenID) (*domain.AssetInfo, error) {
	return m.assets[id], nil
}

func (m *mockPools) SelectPlatformState(ctx context.Context, w domain.TimeWindow) ([]domain.PoolSnapshot, []domain.PoolVolumeSnapshot, error) {
	volumes, err := m.Volumes(ctx, w)
	if err != nil {
		return nil, nil, err
	}
	return m.snapshots, volumes, nil
}

func (m *mockPools) SelectAllPoolStates(_ context.Context, _ domain.TimeWindow) ([]domain.PoolState, error) {
	states := make([]domain.PoolState, 0, len(m.snapshots))
	for _, sn := range m.snapshots {
		states = append(states, domain.PoolState{
			Pool:   sn,
			Info:   m.infos[sn.ID],
			Fees:   m.fees[sn.ID],
			Volume: m.volumes[sn.ID],
		})
	}
	return states, nil
}

type mockOrders struct {
	swaps    []domain.SwapInfo
	deposits []domain.DepositInfo
}

func (m *mockOrders) SwapTxs(_ context.Context, _ domain.TimeWindow) ([]domain.SwapInfo, error) {
	return m.swaps, nil
}

func (m *mockOrders) DepositTxs(_ context.Context, _ domain.TimeWindow) ([]domain.DepositInfo, error) {
	return m.deposits, nil
}

type mockNetwork struct {
	height int64
}

func (m *mockNetwork) CurrentHeight(_ context.Context) (int64, error) {
	return m.height, nil
}

type mockTokens struct {
	tokens map[domain.TokenID]struct{}
}

func (m *mockTokens) FetchTokens(_ context.Context) (map[domain.TokenID]struct{}, error) {
	return m.tokens, nil
}

const (
	tokenA domain.TokenID = "aaaa"
	tokenB domain.TokenID = "bbbb"
)

// ergPool builds a token/ERG pool with the given reserves.
func ergPool(id domain.PoolID, token domain.TokenID, tokenReserve, nanoErgReserve uint64) domain.PoolSnapshot {
	return domain.PoolSnapshot{
		ID:      id,
		LockedX: domain.AssetAmount{ID: token, Amount: tokenReserve},
		LockedY: domain.ErgAmount(nanoErgReserve),
	}
}

// newTestService wires a Service over the mocks with a rate of 5 USD per ERG
// (5e-7 USD-units per nanoERG before the fiat decimal shift).
func newTestService(pools *mockPools, orders *mockOrders, network *mockNetwork, tokens *mockTokens) *Service {
	rate := decimal.NewFromFloat(0.0000005)
	fiat := solver.NewFiatSolver(
		solver.NewCryptoSolver(&poolMarketSource{pools: pools.snapshots}),
		&fixedRates{rate: &rate},
	)
	return NewService(pools, orders, network, tokens, fiat, DefaultConfig())
}
