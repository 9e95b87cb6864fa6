package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// PgOrders reads indexed order execution records from PostgreSQL, pre-grouped
// by asset so the analytics layer never sees individual transactions.
type PgOrders struct {
	pool          *pgxpool.Pool
	defaultWindow time.Duration
}

// NewPgOrders creates a PostgreSQL order reader.
func NewPgOrders(pool *pgxpool.Pool, defaultWindow time.Duration) *PgOrders {
	if defaultWindow <= 0 {
		defaultWindow = 24 * time.Hour
	}
	return &PgOrders{pool: pool, defaultWindow: defaultWindow}
}

func (r *PgOrders) SwapTxs(ctx context.Context, w domain.TimeWindow) ([]domain.SwapInfo, error) {
	from, to := w.Bounds(time.Now(), r.defaultWindow)
	rows, err := r.pool.Query(ctx, `
	SELECT s.input_id, COALESCE(a.ticker, ''), COALESCE(a.decimals, 0),
	       COALESCE(SUM(s.input_amount), 0)::BIGINT, COUNT(*)
	FROM swaps s
	LEFT JOIN assets a ON a.id = s.input_id
	WHERE s.ts >= $1 AND s.ts <= $2
	GROUP BY s.input_id, a.ticker, a.decimals
	ORDER BY s.input_id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying swap transactions: %w", err)
	}
	defer rows.Close()

	var swaps []domain.SwapInfo
	for rows.Next() {
		var (
			info     domain.SwapInfo
			id       domain.TokenID
			ticker   string
			decimals int32
			amount   int64
		)
		if err := rows.Scan(&id, &ticker, &decimals, &amount, &info.NumTxs); err != nil {
			return nil, fmt.Errorf("scanning swap record: %w", err)
		}
		info.Asset = domain.AssetAmount{ID: id, Amount: uint64(amount), Ticker: ticker, Decimals: decimals}
		swaps = append(swaps, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating swap records: %w", err)
	}
	return swaps, nil
}

func (r *PgOrders) DepositTxs(ctx context.Context, w domain.TimeWindow) ([]domain.DepositInfo, error) {
	from, to := w.Bounds(time.Now(), r.defaultWindow)
	rows, err := r.pool.Query(ctx, `
	SELECT d.x_id, COALESCE(ax.ticker, ''), COALESCE(ax.decimals, 0),
	       COALESCE(SUM(d.x_amount), 0)::BIGINT,
	       d.y_id, COALESCE(ay.ticker, ''), COALESCE(ay.decimals, 0),
	       COALESCE(SUM(d.y_amount), 0)::BIGINT,
	       COUNT(*)
	FROM deposits d
	LEFT JOIN assets ax ON ax.id = d.x_id
	LEFT JOIN assets ay ON ay.id = d.y_id
	WHERE d.ts >= $1 AND d.ts <= $2
	GROUP BY d.x_id, ax.ticker, ax.decimals, d.y_id, ay.ticker, ay.decimals
	ORDER BY d.x_id, d.y_id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying deposit transactions: %w", err)
	}
	defer rows.Close()

	var deposits []domain.DepositInfo
	for rows.Next() {
		var (
			info               domain.DepositInfo
			xID, yID           domain.TokenID
			tickerX, tickerY   string
			decimalX, decimalY int32
			amountX, amountY   int64
		)
		if err := rows.Scan(&xID, &tickerX, &decimalX, &amountX,
			&yID, &tickerY, &decimalY, &amountY, &info.NumTxs); err != nil {
			return nil, fmt.Errorf("scanning deposit record: %w", err)
		}
		info.AssetX = domain.AssetAmount{ID: xID, Amount: uint64(amountX), Ticker: tickerX, Decimals: decimalX}
		info.AssetY = domain.AssetAmount{ID: yID, Amount: uint64(amountY), Ticker: tickerY, Decimals: decimalY}
		deposits = append(deposits, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deposit records: %w", err)
	}
	return deposits, nil
}
