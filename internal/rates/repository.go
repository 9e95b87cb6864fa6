package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that no quote was ever published for a currency.
var ErrNotFound = errors.New("quote not found")

// Quote is the native asset's stored fiat price.
type Quote struct {
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// QuoteRepository defines persistent storage for native asset quotes.
type QuoteRepository interface {
	SaveQuote(ctx context.Context, currency string, price decimal.Decimal) error
	GetQuote(ctx context.Context, currency string) (Quote, error)
	GetAllQuotes(ctx context.Context) ([]Quote, error)
}

// PgQuoteRepository implements QuoteRepository with PostgreSQL.
type PgQuoteRepository struct {
	pool *pgxpool.Pool
}

// NewPgQuoteRepository creates a new PostgreSQL quote repository.
func NewPgQuoteRepository(pool *pgxpool.Pool) *PgQuoteRepository {
	return &PgQuoteRepository{pool: pool}
}

func (r *PgQuoteRepository) SaveQuote(ctx context.Context, currency string, price decimal.Decimal) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO rate_quotes (currency, price, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (currency) DO UPDATE SET price = $2, updated_at = NOW()`,
		currency, price)
	if err != nil {
		return fmt.Errorf("saving quote for %s: %w", currency, err)
	}
	return nil
}

func (r *PgQuoteRepository) GetQuote(ctx context.Context, currency string) (Quote, error) {
	var q Quote
	err := r.pool.QueryRow(ctx,
		`SELECT currency, price, updated_at FROM rate_quotes WHERE currency = $1`,
		currency).Scan(&q.Currency, &q.Price, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, fmt.Errorf("getting quote for %s: %w", currency, err)
	}
	return q, nil
}

func (r *PgQuoteRepository) GetAllQuotes(ctx context.Context) ([]Quote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT currency, price, updated_at FROM rate_quotes ORDER BY currency`)
	if err != nil {
		return nil, fmt.Errorf("getting all quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.Currency, &q.Price, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
