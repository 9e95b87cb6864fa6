package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// querier is the pgx query surface shared by the pool and a read transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// recentHeightBlocks bounds "recently active" pools: roughly one day of
// chain heights at the two-minute block target.
const recentHeightBlocks = 720

// latestStatesSQL selects the most recent indexed state per pool with asset
// metadata attached. The indexer seeds the all-zero native row in assets.
const latestStatesSQL = `
	SELECT p.pool_id,
	       p.x_id, p.x_amount, COALESCE(ax.ticker, ''), COALESCE(ax.decimals, 0),
	       p.y_id, p.y_amount, COALESCE(ay.ticker, ''), COALESCE(ay.decimals, 0)
	FROM (
	    SELECT DISTINCT ON (pool_id)
	           pool_id, x_id, x_amount, y_id, y_amount, height
	    FROM pool_states
	    ORDER BY pool_id, gix DESC
	) p
	LEFT JOIN assets ax ON ax.id = p.x_id
	LEFT JOIN assets ay ON ay.id = p.y_id`

// PgPools reads indexed AMM pool state from PostgreSQL. The schema is owned
// by the chain indexer; this side only queries it.
type PgPools struct {
	pool          *pgxpool.Pool
	defaultWindow time.Duration
}

// NewPgPools creates a PostgreSQL pool state reader.
func NewPgPools(pool *pgxpool.Pool, defaultWindow time.Duration) *PgPools {
	if defaultWindow <= 0 {
		defaultWindow = 24 * time.Hour
	}
	return &PgPools{pool: pool, defaultWindow: defaultWindow}
}

func (r *PgPools) Snapshots(ctx context.Context, recentOnly bool) ([]domain.PoolSnapshot, error) {
	return r.snapshots(ctx, r.pool, recentOnly)
}

func (r *PgPools) snapshots(ctx context.Context, q querier, recentOnly bool) ([]domain.PoolSnapshot, error) {
	sql := latestStatesSQL
	var args []any
	if recentOnly {
		sql += `
	WHERE p.height >= (SELECT COALESCE(MAX(height), 0) FROM pool_states) - $1`
		args = append(args, recentHeightBlocks)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pool snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.PoolSnapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pool snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *PgPools) Snapshot(ctx context.Context, id domain.PoolID) (*domain.PoolSnapshot, error) {
	return r.snapshot(ctx, r.pool, id)
}

func (r *PgPools) snapshot(ctx context.Context, q querier, id domain.PoolID) (*domain.PoolSnapshot, error) {
	row := q.QueryRow(ctx, `
	SELECT p.pool_id,
	       p.x_id, p.x_amount, COALESCE(ax.ticker, ''), COALESCE(ax.decimals, 0),
	       p.y_id, p.y_amount, COALESCE(ay.ticker, ''), COALESCE(ay.decimals, 0)
	FROM (
	    SELECT pool_id, x_id, x_amount, y_id, y_amount
	    FROM pool_states
	    WHERE pool_id = $1
	    ORDER BY gix DESC
	    LIMIT 1
	) p
	LEFT JOIN assets ax ON ax.id = p.x_id
	LEFT JOIN assets ay ON ay.id = p.y_id`, id)

	sn, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sn, nil
}

func (r *PgPools) Info(ctx context.Context, id domain.PoolID) (*domain.PoolInfo, error) {
	return r.info(ctx, r.pool, id)
}

func (r *PgPools) info(ctx context.Context, q querier, id domain.PoolID) (*domain.PoolInfo, error) {
	var info domain.PoolInfo
	err := q.QueryRow(ctx, `
	SELECT pool_id, ts
	FROM pool_states
	WHERE pool_id = $1
	ORDER BY gix ASC
	LIMIT 1`, id).Scan(&info.ID, &info.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying pool info %s: %w", id, err)
	}
	return &info, nil
}

func (r *PgPools) Volumes(ctx context.Context, w domain.TimeWindow) ([]domain.PoolVolumeSnapshot, error) {
	return r.volumes(ctx, r.pool, w)
}

func (r *PgPools) volumes(ctx context.Context, q querier, w domain.TimeWindow) ([]domain.PoolVolumeSnapshot, error) {
	from, to := w.Bounds(time.Now(), r.defaultWindow)
	rows, err := q.Query(ctx, `
	WITH latest AS (
	    SELECT DISTINCT ON (pool_id) pool_id, x_id, y_id
	    FROM pool_states
	    ORDER BY pool_id, gix DESC
	)
	SELECT s.pool_id,
	       l.x_id, COALESCE(ax.ticker, ''), COALESCE(ax.decimals, 0),
	       l.y_id, COALESCE(ay.ticker, ''), COALESCE(ay.decimals, 0),
	       COALESCE(SUM(s.input_amount) FILTER (WHERE s.input_id = l.x_id), 0)::BIGINT,
	       COALESCE(SUM(s.input_amount) FILTER (WHERE s.input_id = l.y_id), 0)::BIGINT
	FROM swaps s
	JOIN latest l ON l.pool_id = s.pool_id
	LEFT JOIN assets ax ON ax.id = l.x_id
	LEFT JOIN assets ay ON ay.id = l.y_id
	WHERE s.ts >= $1 AND s.ts <= $2
	GROUP BY s.pool_id, l.x_id, ax.ticker, ax.decimals, l.y_id, ay.ticker, ay.decimals
	ORDER BY s.pool_id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying pool volumes: %w", err)
	}
	defer rows.Close()

	var volumes []domain.PoolVolumeSnapshot
	for rows.Next() {
		var (
			v                  domain.PoolVolumeSnapshot
			volumeX, volumeY   int64
			tickerX, tickerY   string
			decimalX, decimalY int32
			xID, yID           domain.TokenID
		)
		if err := rows.Scan(&v.ID, &xID, &tickerX, &decimalX, &yID, &tickerY, &decimalY, &volumeX, &volumeY); err != nil {
			return nil, fmt.Errorf("scanning pool volume: %w", err)
		}
		v.VolumeX = domain.AssetAmount{ID: xID, Amount: uint64(volumeX), Ticker: tickerX, Decimals: decimalX}
		v.VolumeY = domain.AssetAmount{ID: yID, Amount: uint64(volumeY), Ticker: tickerY, Decimals: decimalY}
		v.Window = w
		volumes = append(volumes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pool volumes: %w", err)
	}
	return volumes, nil
}

func (r *PgPools) Volume(ctx context.Context, id domain.PoolID, w domain.TimeWindow) (*domain.PoolVolumeSnapshot, error) {
	sn, err := r.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if sn == nil {
		return nil, nil
	}
	return r.volumeOf(ctx, r.pool, *sn, w)
}

func (r *PgPools) volumeOf(ctx context.Context, q querier, sn domain.PoolSnapshot, w domain.TimeWindow) (*domain.PoolVolumeSnapshot, error) {
	from, to := w.Bounds(time.Now(), r.defaultWindow)
	var volumeX, volumeY int64
	err := q.QueryRow(ctx, `
	SELECT COALESCE(SUM(input_amount) FILTER (WHERE input_id = $2), 0)::BIGINT,
	       COALESCE(SUM(input_amount) FILTER (WHERE input_id = $3), 0)::BIGINT
	FROM swaps
	WHERE pool_id = $1 AND ts >= $4 AND ts <= $5`,
		sn.ID, sn.LockedX.ID, sn.LockedY.ID, from, to).Scan(&volumeX, &volumeY)
	if err != nil {
		return nil, fmt.Errorf("querying pool volume %s: %w", sn.ID, err)
	}

	return &domain.PoolVolumeSnapshot{
		ID:      sn.ID,
		VolumeX: withAmount(sn.LockedX, uint64(volumeX)),
		VolumeY: withAmount(sn.LockedY, uint64(volumeY)),
		Window:  w,
	}, nil
}

func (r *PgPools) Fees(ctx context.Context, id domain.PoolID, w domain.TimeWindow) (*domain.PoolFeesSnapshot, error) {
	sn, err := r.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if sn == nil {
		return nil, nil
	}
	return r.feesOf(ctx, r.pool, *sn, w)
}

// feesOf accrues swap fees per output side. fee_num is in thousandths and is
// copied onto each swap from the pool box at execution time.
func (r *PgPools) feesOf(ctx context.Context, q querier, sn domain.PoolSnapshot, w domain.TimeWindow) (*domain.PoolFeesSnapshot, error) {
	from, to := w.Bounds(time.Now(), r.defaultWindow)
	var feesX, feesY int64
	err := q.QueryRow(ctx, `
	SELECT COALESCE(SUM(output_amount * (1000 - fee_num) / 1000) FILTER (WHERE output_id = $2), 0)::BIGINT,
	       COALESCE(SUM(output_amount * (1000 - fee_num) / 1000) FILTER (WHERE output_id = $3), 0)::BIGINT
	FROM swaps
	WHERE pool_id = $1 AND ts >= $4 AND ts <= $5`,
		sn.ID, sn.LockedX.ID, sn.LockedY.ID, from, to).Scan(&feesX, &feesY)
	if err != nil {
		return nil, fmt.Errorf("querying pool fees %s: %w", sn.ID, err)
	}

	return &domain.PoolFeesSnapshot{
		ID:     sn.ID,
		FeesX:  withAmount(sn.LockedX, uint64(feesX)),
		FeesY:  withAmount(sn.LockedY, uint64(feesY)),
		Window: w,
	}, nil
}

func (r *PgPools) FeesAndVolumes(ctx context.Context, id domain.PoolID, w domain.TimeWindow) (*domain.PoolFeesAndVolumes, error) {
	sn, err := r.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if sn == nil {
		return nil, nil
	}

	from, to := w.Bounds(time.Now(), r.defaultWindow)
	var volumeX, volumeY, feesX, feesY int64
	err = r.pool.QueryRow(ctx, `
	SELECT COALESCE(SUM(input_amount) FILTER (WHERE input_id = $2), 0)::BIGINT,
	       COALESCE(SUM(input_amount) FILTER (WHERE input_id = $3), 0)::BIGINT,
	       COALESCE(SUM(output_amount * (1000 - fee_num) / 1000) FILTER (WHERE output_id = $2), 0)::BIGINT,
	       COALESCE(SUM(output_amount * (1000 - fee_num) / 1000) FILTER (WHERE output_id = $3), 0)::BIGINT
	FROM swaps
	WHERE pool_id = $1 AND ts >= $4 AND ts <= $5`,
		sn.ID, sn.LockedX.ID, sn.LockedY.ID, from, to).Scan(&volumeX, &volumeY, &feesX, &feesY)
	if err != nil {
		return nil, fmt.Errorf("querying pool fees and volumes %s: %w", id, err)
	}

	return &domain.PoolFeesAndVolumes{
		Fees: domain.PoolFeesSnapshot{
			ID:     sn.ID,
			FeesX:  withAmount(sn.LockedX, uint64(feesX)),
			FeesY:  withAmount(sn.LockedY, uint64(feesY)),
			Window: w,
		},
		Volume: domain.PoolVolumeSnapshot{
			ID:      sn.ID,
			VolumeX: withAmount(sn.LockedX, uint64(volumeX)),
			VolumeY: withAmount(sn.LockedY, uint64(volumeY)),
			Window:  w,
		},
	}, nil
}

func (r *PgPools) Trace(ctx context.Context, id domain.PoolID, depth int, maxHeight int64) ([]domain.PoolTraceEntry, error) {
	rows, err := r.pool.Query(ctx, `
	SELECT p.gix, p.pool_id,
	       p.x_id, p.x_amount, COALESCE(ax.ticker, ''), COALESCE(ax.decimals, 0),
	       p.y_id, p.y_amount, COALESCE(ay.ticker, ''), COALESCE(ay.decimals, 0),
	       p.height
	FROM (
	    SELECT gix, pool_id, x_id, x_amount, y_id, y_amount, height
	    FROM pool_states
	    WHERE pool_id = $1 AND height <= $2
	    ORDER BY gix DESC
	    LIMIT $3
	) p
	LEFT JOIN assets ax ON ax.id = p.x_id
	LEFT JOIN assets ay ON ay.id = p.y_id`, id, maxHeight, depth)
	if err != nil {
		return nil, fmt.Errorf("querying pool trace %s: %w", id, err)
	}
	defer rows.Close()

	var entries []domain.PoolTraceEntry
	for rows.Next() {
		entry, err := scanTraceEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pool trace %s: %w", id, err)
	}
	return entries, nil
}

func (r *PgPools) PrevTrace(ctx context.Context, id domain.PoolID, depth int, maxHeight int64) (*domain.PoolTraceEntry, error) {
	row := r.pool.QueryRow(ctx, `
	SELECT p.gix, p.pool_id,
	       p.x_id, p.x_amount, COALESCE(ax.ticker, ''), COALESCE(ax.decimals, 0),
	       p.y_id, p.y_amount, COALESCE(ay.ticker, ''), COALESCE(ay.decimals, 0),
	       p.height
	FROM (
	    SELECT gix, pool_id, x_id, x_amount, y_id, y_amount, height
	    FROM pool_states
	    WHERE pool_id = $1 AND height <= $2
	    ORDER BY gix DESC
	    OFFSET $3
	    LIMIT 1
	) p
	LEFT JOIN assets ax ON ax.id = p.x_id
	LEFT JOIN assets ay ON ay.id = p.y_id`, id, maxHeight, depth)

	entry, err := scanTraceEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *PgPools) AvgAmounts(ctx context.Context, id domain.PoolID, w domain.TimeWindow, resolution int) ([]domain.AvgAssetAmounts, error) {
	if resolution <= 0 {
		resolution = int(time.Hour.Milliseconds())
	}
	from, to := w.Bounds(time.Now(), r.defaultWindow)
	rows, err := r.pool.Query(ctx, `
	SELECT AVG(x_amount)::BIGINT, AVG(y_amount)::BIGINT, (ts / $4) * $4 AS bucket
	FROM pool_states
	WHERE pool_id = $1 AND ts >= $2 AND ts <= $3
	GROUP BY bucket
	ORDER BY bucket`, id, from, to, resolution)
	if err != nil {
		return nil, fmt.Errorf("querying pool average amounts %s: %w", id, err)
	}
	defer rows.Close()

	var amounts []domain.AvgAssetAmounts
	for rows.Next() {
		var amountX, amountY int64
		var a domain.AvgAssetAmounts
		if err := rows.Scan(&amountX, &amountY, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning pool average amounts: %w", err)
		}
		a.AmountX, a.AmountY = uint64(amountX), uint64(amountY)
		amounts = append(amounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pool average amounts %s: %w", id, err)
	}
	return amounts, nil
}

func (r *PgPools) AssetByID(ctx context.Context, id domain.TokenID) (*domain.AssetInfo, error) {
	var info domain.AssetInfo
	err := r.pool.QueryRow(ctx, `
	SELECT id, COALESCE(ticker, ''), COALESCE(decimals, 0)
	FROM assets
	WHERE id = $1`, id).Scan(&info.ID, &info.Ticker, &info.Decimals)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying asset %s: %w", id, err)
	}
	return &info, nil
}

// SelectPlatformState reads all snapshots and windowed volumes inside one
// repeatable-read transaction so the platform totals are internally
// consistent.
func (r *PgPools) SelectPlatformState(ctx context.Context, w domain.TimeWindow) ([]domain.PoolSnapshot, []domain.PoolVolumeSnapshot, error) {
	var (
		snapshots []domain.PoolSnapshot
		volumes   []domain.PoolVolumeSnapshot
	)
	err := pgx.BeginTxFunc(ctx, r.pool, readOnlyTx(), func(tx pgx.Tx) error {
		var err error
		if snapshots, err = r.snapshots(ctx, tx, false); err != nil {
			return err
		}
		volumes, err = r.volumes(ctx, tx, w)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("selecting platform state: %w", err)
	}
	return snapshots, volumes, nil
}

// SelectAllPoolStates reads every pool's snapshot, info, fees and volume in
// one repeatable-read transaction with a fixed number of set-based queries.
func (r *PgPools) SelectAllPoolStates(ctx context.Context, w domain.TimeWindow) ([]domain.PoolState, error) {
	var states []domain.PoolState
	err := pgx.BeginTxFunc(ctx, r.pool, readOnlyTx(), func(tx pgx.Tx) error {
		snapshots, err := r.snapshots(ctx, tx, false)
		if err != nil {
			return err
		}
		infos, err := r.allInfos(ctx, tx)
		if err != nil {
			return err
		}
		volumes, err := r.volumes(ctx, tx, w)
		if err != nil {
			return err
		}
		fees, err := r.allFees(ctx, tx, snapshots, w)
		if err != nil {
			return err
		}

		volumeByID := make(map[domain.PoolID]*domain.PoolVolumeSnapshot, len(volumes))
		for i := range volumes {
			volumeByID[volumes[i].ID] = &volumes[i]
		}

		states = make([]domain.PoolState, 0, len(snapshots))
		for _, sn := range snapshots {
			states = append(states, domain.PoolState{
				Pool:   sn,
				Info:   infos[sn.ID],
				Fees:   fees[sn.ID],
				Volume: volumeByID[sn.ID],
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("selecting pool states: %w", err)
	}
	return states, nil
}

func (r *PgPools) allInfos(ctx context.Context, q querier) (map[domain.PoolID]*domain.PoolInfo, error) {
	rows, err := q.Query(ctx, `
	SELECT DISTINCT ON (pool_id) pool_id, ts
	FROM pool_states
	ORDER BY pool_id, gix ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying pool infos: %w", err)
	}
	defer rows.Close()

	infos := make(map[domain.PoolID]*domain.PoolInfo)
	for rows.Next() {
		var info domain.PoolInfo
		if err := rows.Scan(&info.ID, &info.ConfirmedAt); err != nil {
			return nil, fmt.Errorf("scanning pool info: %w", err)
		}
		infos[info.ID] = &info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pool infos: %w", err)
	}
	return infos, nil
}

func (r *PgPools) allFees(ctx context.Context, q querier, snapshots []domain.PoolSnapshot, w domain.TimeWindow) (map[domain.PoolID]*domain.PoolFeesSnapshot, error) {
	from, to := w.Bounds(time.Now(), r.defaultWindow)
	rows, err := q.Query(ctx, `
	WITH latest AS (
	    SELECT DISTINCT ON (pool_id) pool_id, x_id, y_id
	    FROM pool_states
	    ORDER BY pool_id, gix DESC
	)
	SELECT s.pool_id,
	       COALESCE(SUM(s.output_amount * (1000 - s.fee_num) / 1000) FILTER (WHERE s.output_id = l.x_id), 0)::BIGINT,
	       COALESCE(SUM(s.output_amount * (1000 - s.fee_num) / 1000) FILTER (WHERE s.output_id = l.y_id), 0)::BIGINT
	FROM swaps s
	JOIN latest l ON l.pool_id = s.pool_id
	WHERE s.ts >= $1 AND s.ts <= $2
	GROUP BY s.pool_id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying pool fees: %w", err)
	}
	defer rows.Close()

	byID := make(map[domain.PoolID]domain.PoolSnapshot, len(snapshots))
	for _, sn := range snapshots {
		byID[sn.ID] = sn
	}

	fees := make(map[domain.PoolID]*domain.PoolFeesSnapshot)
	for rows.Next() {
		var id domain.PoolID
		var feesX, feesY int64
		if err := rows.Scan(&id, &feesX, &feesY); err != nil {
			return nil, fmt.Errorf("scanning pool fees: %w", err)
		}
		sn, ok := byID[id]
		if !ok {
			continue
		}
		fees[id] = &domain.PoolFeesSnapshot{
			ID:     id,
			FeesX:  withAmount(sn.LockedX, uint64(feesX)),
			FeesY:  withAmount(sn.LockedY, uint64(feesY)),
			Window: w,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pool fees: %w", err)
	}
	return fees, nil
}

func readOnlyTx() pgx.TxOptions {
	return pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
}

func scanSnapshot(row pgx.Row) (domain.PoolSnapshot, error) {
	var (
		sn                 domain.PoolSnapshot
		xID, yID           domain.TokenID
		amountX, amountY   int64
		tickerX, tickerY   string
		decimalX, decimalY int32
	)
	err := row.Scan(&sn.ID,
		&xID, &amountX, &tickerX, &decimalX,
		&yID, &amountY, &tickerY, &decimalY)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PoolSnapshot{}, err
		}
		return domain.PoolSnapshot{}, fmt.Errorf("scanning pool snapshot: %w", err)
	}
	sn.LockedX = domain.AssetAmount{ID: xID, Amount: uint64(amountX), Ticker: tickerX, Decimals: decimalX}
	sn.LockedY = domain.AssetAmount{ID: yID, Amount: uint64(amountY), Ticker: tickerY, Decimals: decimalY}
	return sn, nil
}

func scanTraceEntry(row pgx.Row) (domain.PoolTraceEntry, error) {
	var (
		entry              domain.PoolTraceEntry
		xID, yID           domain.TokenID
		amountX, amountY   int64
		tickerX, tickerY   string
		decimalX, decimalY int32
	)
	err := row.Scan(&entry.Gix, &entry.ID,
		&xID, &amountX, &tickerX, &decimalX,
		&yID, &amountY, &tickerY, &decimalY,
		&entry.Height)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PoolTraceEntry{}, err
		}
		return domain.PoolTraceEntry{}, fmt.Errorf("scanning pool trace entry: %w", err)
	}
	entry.LockedX = domain.AssetAmount{ID: xID, Amount: uint64(amountX), Ticker: tickerX, Decimals: decimalX}
	entry.LockedY = domain.AssetAmount{ID: yID, Amount: uint64(amountY), Ticker: tickerY, Decimals: decimalY}
	return entry, nil
}

// withAmount keeps an asset's identity and metadata but swaps the amount.
func withAmount(a domain.AssetAmount, n uint64) domain.AssetAmount {
	a.Amount = n
	return a
}
