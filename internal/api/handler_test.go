package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
	"github.com/ergoplatform/dex-stats/internal/solver"
	"github.com/ergoplatform/dex-stats/internal/stats"
)

const testToken domain.TokenID = "aaaa"

type mockPools struct {
	snapshots []domain.PoolSnapshot
	infos     map[domain.PoolID]*domain.PoolInfo
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
	return nil, nil
}

func (m *mockPools) Volume(_ context.Context, _ domain.PoolID, _ domain.TimeWindow) (*domain.PoolVolumeSnapshot, error) {
	return nil, nil
}

func (m *mockPools) Fees(_ context.Context, _ domain.PoolID, _ domain.TimeWindow) (*domain.PoolFeesSnapshot, error) {
	return nil, nil
}

func (m *mockPools) FeesAndVolumes(_ context.Context, _ domain.PoolID, _ domain.TimeWindow) (*domain.PoolFeesAndVolumes, error) {
	return nil, nil
}

func (m *mockPools) Trace(_ context.Context, _ domain.PoolID, _ int, _ int64) ([]domain.PoolTraceEntry, error) {
	return nil, nil
}

func (m *mockPools) PrevTrace(_ context.Context, _ domain.PoolID, _ int, _ int64) (*domain.PoolTraceEntry, error) {
	return nil, nil
}

func (m *mockPools) AvgAmounts(_ context.Context, _ domain.PoolID, _ domain.TimeWindow, _ int) ([]domain.AvgAssetAmounts, error) {
	return nil, nil
}

func (m *mockPools) AssetByID(_ context.Context, id domain.TokenID) (*domain.AssetInfo, error) {
	return m.assets[id], nil
}

func (m *mockPools) SelectPlatformState(_ context.Context, _ domain.TimeWindow) ([]domain.PoolSnapshot, []domain.PoolVolumeSnapshot, error) {
	return m.snapshots, nil, nil
}

func (m *mockPools) SelectAllPoolStates(_ context.Context, _ domain.TimeWindow) ([]domain.PoolState, error) {
	states := make([]domain.PoolState, 0, len(m.snapshots))
	for _, sn := range m.snapshots {
		states = append(states, domain.PoolState{Pool: sn, Info: m.infos[sn.ID]})
	}
	return states, nil
}

type mockOrders struct{}

func (mockOrders) SwapTxs(_ context.Context, _ domain.TimeWindow) ([]domain.SwapInfo, error) {
	return nil, nil
}

func (mockOrders) DepositTxs(_ context.Context, _ domain.TimeWindow) ([]domain.DepositInfo, error) {
	return nil, nil
}

type mockNetwork struct{}

func (mockNetwork) CurrentHeight(_ context.Context) (int64, error) { return 100, nil }

type mockTokens struct{}

func (mockTokens) FetchTokens(_ context.Context) (map[domain.TokenID]struct{}, error) {
	return map[domain.TokenID]struct{}{testToken: {}}, nil
}

type poolMarketSource struct {
	pools []domain.PoolSnapshot
}

func (p *poolMarketSource) MarketsBy(_ context.Context, id domain.TokenID) ([]solver.Market, error) {
	return solver.MarketsFromPools(p.pools, id), nil
}

type fixedRates struct {
	rate decimal.Decimal
}

func (f *fixedRates) RateOf(_ context.Context, _ domain.TokenID, _ domain.FiatUnits) (*decimal.Decimal, error) {
	return &f.rate, nil
}

type mockQuoteFetcher struct {
	err    error
	called bool
}

func (m *mockQuoteFetcher) FetchAndStoreQuotes(_ context.Context) error {
	m.called = true
	return m.err
}

func newTestHandler(quotes QuoteFetcher) *Handler {
	pools := &mockPools{
		snapshots: []domain.PoolSnapshot{{
			ID:      "p1",
			LockedX: domain.AssetAmount{ID: testToken, Amount: 1000, Ticker: "A"},
			LockedY: domain.ErgAmount(2_000_000_000),
		}},
		infos: map[domain.PoolID]*domain.PoolInfo{
			"p1": {ID: "p1", ConfirmedAt: 1},
		},
		assets: map[domain.TokenID]*domain.AssetInfo{
			testToken: {ID: testToken, Ticker: "A"},
		},
	}
	fiat := solver.NewFiatSolver(
		solver.NewCryptoSolver(&poolMarketSource{pools: pools.snapshots}),
		&fixedRates{rate: decimal.NewFromFloat(0.0000005)},
	)
	svc := stats.NewService(pools, mockOrders{}, mockNetwork{}, mockTokens{}, fiat, stats.DefaultConfig())
	return NewHandler(svc, quotes)
}

func TestGetPoolStats(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pools/p1/stats", nil)
	req.SetPathValue("id", "p1")
	w := httptest.NewRecorder()
	handler.GetPoolStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result domain.PoolStats
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.ID != "p1" {
		t.Errorf("pool ID = %s, want p1", result.ID)
	}
	// 2 ERG + tokenA worth 2 ERG at 5 USD per ERG.
	if !result.TVL.Value.Equal(decimal.NewFromInt(20)) {
		t.Errorf("TVL = %s, want 20", result.TVL.Value)
	}
}

func TestGetPoolStatsNotFound(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pools/nope/stats", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	handler.GetPoolStats(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetPoolSlippageNotFound(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pools/nope/slippage", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	handler.GetPoolSlippage(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetPlatformStats(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/platform/stats", nil)
	w := httptest.NewRecorder()
	handler.GetPlatformStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result domain.PlatformSummary
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !result.TVL.Value.Equal(decimal.NewFromInt(20)) {
		t.Errorf("TVL = %s, want 20", result.TVL.Value)
	}
}

func TestConvertToFiat(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/convert?tokenId=aaaa&amount=100", nil)
	w := httptest.NewRecorder()
	handler.ConvertToFiat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result domain.AssetEquiv
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !result.Value.Equal(decimal.NewFromInt(1)) {
		t.Errorf("value = %s, want 1", result.Value)
	}
}

func TestConvertToFiatValidation(t *testing.T) {
	handler := newTestHandler(nil)

	cases := []struct {
		name   string
		target string
		want   int
	}{
		{"missing token", "/api/v1/convert?amount=100", http.StatusBadRequest},
		{"bad amount", "/api/v1/convert?tokenId=aaaa&amount=-5", http.StatusBadRequest},
		{"unknown token", "/api/v1/convert?tokenId=ffff&amount=100", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			w := httptest.NewRecorder()
			handler.ConvertToFiat(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestRefreshRates(t *testing.T) {
	quotes := &mockQuoteFetcher{}
	handler := newTestHandler(quotes)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates/refresh", nil)
	w := httptest.NewRecorder()
	handler.RefreshRates(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !quotes.called {
		t.Error("quote fetcher was not called")
	}
}

func TestRefreshRatesFailure(t *testing.T) {
	quotes := &mockQuoteFetcher{err: errors.New("coingecko down")}
	handler := newTestHandler(quotes)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates/refresh", nil)
	w := httptest.NewRecorder()
	handler.RefreshRates(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
