package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// Service keeps the native asset's fiat quote fresh and serves it as a
// conversion rate. Only the native asset is quoted externally; every other
// token is priced through pools.
type Service struct {
	coingecko      *CoinGeckoClient
	repo           QuoteRepository
	currencies     []string
	staleThreshold time.Duration
	now            func() time.Time
}

// NewService creates a new rate service fetching quotes for the given
// fiat currencies.
func NewService(coingecko *CoinGeckoClient, repo QuoteRepository, currencies []string, staleThreshold time.Duration) *Service {
	return &Service{
		coingecko:      coingecko,
		repo:           repo,
		currencies:     currencies,
		staleThreshold: staleThreshold,
		now:            time.Now,
	}
}

// FetchAndStoreQuotes fetches the native asset's price for each configured
// currency and stores it.
func (s *Service) FetchAndStoreQuotes(ctx context.Context) error {
	for _, currency := range s.currencies {
		price, err := s.coingecko.FetchPrice(ctx, currency)
		if err != nil {
			return fmt.Errorf("fetching %s quote: %w", currency, err)
		}
		if err := s.repo.SaveQuote(ctx, currency, price); err != nil {
			return fmt.Errorf("storing %s quote: %w", currency, err)
		}
	}
	return nil
}

// RateOf returns the conversion rate from one base unit of the given token to
// base units of the fiat currency. Only the native asset has a published rate;
// a missing or stale quote yields nil, not an error.
func (s *Service) RateOf(ctx context.Context, id domain.TokenID, units domain.FiatUnits) (*decimal.Decimal, error) {
	if id != domain.NativeTokenID {
		return nil, nil
	}

	quote, err := s.repo.GetQuote(ctx, units.Currency)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if s.staleThreshold > 0 && s.now().Sub(quote.UpdatedAt) > s.staleThreshold {
		slog.Warn("native asset quote is stale", "currency", units.Currency, "updatedAt", quote.UpdatedAt)
		return nil, nil
	}

	// The stored price is fiat per whole native unit; callers work in base
	// units on both sides.
	rate := quote.Price.Shift(units.Decimals - domain.ErgDecimals)
	return &rate, nil
}
