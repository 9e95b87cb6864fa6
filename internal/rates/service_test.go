package rates

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

type mockQuoteRepo struct {
	quotes map[string]Quote
}

func (m *mockQuoteRepo) SaveQuote(_ context.Context, currency string, price decimal.Decimal) error {
	m.quotes[currency] = Quote{Currency: currency, Price: price, UpdatedAt: time.Now()}
	return nil
}

func (m *mockQuoteRepo) GetQuote(_ context.Context, currency string) (Quote, error) {
	q, ok := m.quotes[currency]
	if !ok {
		return Quote{}, ErrNotFound
	}
	return q, nil
}

func (m *mockQuoteRepo) GetAllQuotes(_ context.Context) ([]Quote, error) {
	var result []Quote
	for _, q := range m.quotes {
		result = append(result, q)
	}
	return result, nil
}

func TestRateOfNativeAsset(t *testing.T) {
	repo := &mockQuoteRepo{quotes: map[string]Quote{
		"USD": {Currency: "USD", Price: decimal.NewFromInt(5), UpdatedAt: time.Now()},
	}}
	svc := NewService(nil, repo, []string{"USD"}, 2*time.Hour)

	rate, err := svc.RateOf(context.Background(), domain.NativeTokenID, domain.UsdUnits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate == nil {
		t.Fatal("expected a rate for the native asset")
	}
	// 5 USD per ERG is 5e-7 USD cents per nanoERG.
	if !rate.Equal(decimal.NewFromFloat(0.0000005)) {
		t.Errorf("rate = %s, want 0.0000005", rate)
	}
}

func TestRateOfNonNativeToken(t *testing.T) {
	repo := &mockQuoteRepo{quotes: map[string]Quote{
		"USD": {Currency: "USD", Price: decimal.NewFromInt(5), UpdatedAt: time.Now()},
	}}
	svc := NewService(nil, repo, []string{"USD"}, 2*time.Hour)

	rate, err := svc.RateOf(context.Background(), "aaaa", domain.UsdUnits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != nil {
		t.Error("expected nil rate for a non-native token")
	}
}

func TestRateOfMissingQuote(t *testing.T) {
	repo := &mockQuoteRepo{quotes: make(map[string]Quote)}
	svc := NewService(nil, repo, []string{"USD"}, 2*time.Hour)

	rate, err := svc.RateOf(context.Background(), domain.NativeTokenID, domain.UsdUnits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != nil {
		t.Error("expected nil rate when no quote was ever published")
	}
}

func TestRateOfStaleQuote(t *testing.T) {
	repo := &mockQuoteRepo{quotes: map[string]Quote{
		"USD": {Currency: "USD", Price: decimal.NewFromInt(5), UpdatedAt: time.Now().Add(-3 * time.Hour)},
	}}
	svc := NewService(nil, repo, []string{"USD"}, 2*time.Hour)

	rate, err := svc.RateOf(context.Background(), domain.NativeTokenID, domain.UsdUnits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != nil {
		t.Error("expected nil rate for a stale quote")
	}
}
