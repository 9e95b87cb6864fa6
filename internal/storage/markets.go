package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ergoplatform/dex-stats/internal/domain"
	"github.com/ergoplatform/dex-stats/internal/solver"
)

// PgMarkets is the market index backed by the latest indexed pool states.
type PgMarkets struct {
	pool *pgxpool.Pool
}

// NewPgMarkets creates a PostgreSQL market index.
func NewPgMarkets(pool *pgxpool.Pool) *PgMarkets {
	return &PgMarkets{pool: pool}
}

// MarketsBy derives the markets quoting a token from the latest state of
// every pool holding it on either side.
func (r *PgMarkets) MarketsBy(ctx context.Context, id domain.TokenID) ([]solver.Market, error) {
	rows, err := r.pool.Query(ctx, `
	SELECT p.pool_id,
	       p.x_id, p.x_amount, COALESCE(ax.ticker, ''), COALESCE(ax.decimals, 0),
	       p.y_id, p.y_amount, COALESCE(ay.ticker, ''), COALESCE(ay.decimals, 0)
	FROM (
	    SELECT DISTINCT ON (pool_id)
	           pool_id, x_id, x_amount, y_id, y_amount
	    FROM pool_states
	    ORDER BY pool_id, gix DESC
	) p
	LEFT JOIN assets ax ON ax.id = p.x_id
	LEFT JOIN assets ay ON ay.id = p.y_id
	WHERE p.x_id = $1 OR p.y_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying markets for %s: %w", id, err)
	}
	defer rows.Close()

	var pools []domain.PoolSnapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating markets for %s: %w", id, err)
	}

	return solver.MarketsFromPools(pools, id), nil
}
