package stats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
	"github.com/ergoplatform/dex-stats/internal/solver"
)

// Pools is the read contract over indexed pool state. Absence (unknown pool,
// not-yet-indexed info, empty history) is a nil/empty value; errors mean the
// store itself failed and propagate unchanged.
type Pools interface {
	Snapshots(ctx context.Context, recentOnly bool) ([]domain.PoolSnapshot, error)
	Snapshot(ctx context.Context, id domain.PoolID) (*domain.PoolSnapshot, error)
	Info(ctx context.Context, id domain.PoolID) (*domain.PoolInfo, error)
	Volumes(ctx context.Context, w domain.TimeWindow) ([]domain.PoolVolumeSnapshot, error)
	Volume(ctx context.Context, id domain.PoolID, w domain.TimeWindow) (*domain.PoolVolumeSnapshot, error)
	Fees(ctx context.Context, id domain.PoolID, w domain.TimeWindow) (*domain.PoolFeesSnapshot, error)
	FeesAndVolumes(ctx context.Context, id domain.PoolID, w domain.TimeWindow) (*domain.PoolFeesAndVolumes, error)
	Trace(ctx context.Context, id domain.PoolID, depth int, maxHeight int64) ([]domain.PoolTraceEntry, error)
	PrevTrace(ctx context.Context, id domain.PoolID, depth int, maxHeight int64) (*domain.PoolTraceEntry, error)
	AvgAmounts(ctx context.Context, id domain.PoolID, w domain.TimeWindow, resolution int) ([]domain.AvgAssetAmounts, error)
	AssetByID(ctx context.Context, id domain.TokenID) (*domain.AssetInfo, error)

	// SelectPlatformState reads all snapshots and all windowed volumes in one
	// consistent store scope.
	SelectPlatformState(ctx context.Context, w domain.TimeWindow) ([]domain.PoolSnapshot, []domain.PoolVolumeSnapshot, error)
	// SelectAllPoolStates reads every pool's snapshot, info, fees and volume
	// in one consistent store scope.
	SelectAllPoolStates(ctx context.Context, w domain.TimeWindow) ([]domain.PoolState, error)
}

// Orders is the read contract over indexed order execution records.
type Orders interface {
	SwapTxs(ctx context.Context, w domain.TimeWindow) ([]domain.SwapInfo, error)
	DepositTxs(ctx context.Context, w domain.TimeWindow) ([]domain.DepositInfo, error)
}

// Network provides the current chain height used as a time anchor.
type Network interface {
	CurrentHeight(ctx context.Context) (int64, error)
}

// TokenFetcher provides the known-valid token allow-list.
type TokenFetcher interface {
	FetchTokens(ctx context.Context) (map[domain.TokenID]struct{}, error)
}

// Config carries the tunable analytics constants.
type Config struct {
	Fiat                domain.FiatUnits
	SlippageBucketWidth int64
	AnnualizationDays   int
	DefaultWindow       time.Duration
}

// DefaultConfig returns the production defaults: USD at 2 decimals, slippage
// buckets of 2 heights, 365-day annualization, 24h fallback window.
func DefaultConfig() Config {
	return Config{
		Fiat:                domain.UsdUnits(),
		SlippageBucketWidth: 2,
		AnnualizationDays:   365,
		DefaultWindow:       24 * time.Hour,
	}
}

// Service computes derived AMM analytics from indexed pool and order state.
type Service struct {
	pools   Pools
	orders  Orders
	network Network
	tokens  TokenFetcher
	fiat    *solver.FiatSolver
	cfg     Config
	now     func() time.Time
}

// NewService creates the analytics service. All dependencies are required.
func NewService(pools Pools, orders Orders, network Network, tokens TokenFetcher, fiat *solver.FiatSolver, cfg Config) *Service {
	if pools == nil {
		panic("stats.NewService: pools is nil")
	}
	if orders == nil {
		panic("stats.NewService: orders is nil")
	}
	if network == nil {
		panic("stats.NewService: network is nil")
	}
	if tokens == nil {
		panic("stats.NewService: tokens is nil")
	}
	if fiat == nil {
		panic("stats.NewService: fiat is nil")
	}
	if cfg.SlippageBucketWidth <= 0 {
		cfg.SlippageBucketWidth = 2
	}
	if cfg.AnnualizationDays <= 0 {
		cfg.AnnualizationDays = 365
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = 24 * time.Hour
	}
	if cfg.Fiat.Currency == "" {
		cfg.Fiat = domain.UsdUnits()
	}
	return &Service{
		pools:   pools,
		orders:  orders,
		network: network,
		tokens:  tokens,
		fiat:    fiat,
		cfg:     cfg,
		now:     time.Now,
	}
}

// ConvertToFiat values an amount of an arbitrary known token in the
// configured fiat currency. Returns nil when the token is unknown or no
// price path exists.
func (s *Service) ConvertToFiat(ctx context.Context, id domain.TokenID, amount uint64) (*domain.AssetEquiv, error) {
	info, err := s.pools.AssetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	return s.fiat.Convert(ctx, info.Amount(amount), s.cfg.Fiat, nil)
}

// fiatValue converts one side to fiat, mapping a missing price path to a
// zero contribution.
func (s *Service) fiatValue(ctx context.Context, a domain.AssetAmount, pools []domain.PoolSnapshot) (decimal.Decimal, error) {
	eq, err := s.fiat.Convert(ctx, a, s.cfg.Fiat, pools)
	if err != nil {
		return decimal.Zero, err
	}
	if eq == nil {
		return decimal.Zero, nil
	}
	return eq.Value, nil
}
