package domain

// PoolID identifies one AMM pool (the id of its liquidity token).
type PoolID string

// PoolSnapshot is the most recent known reserve state of one pool.
type PoolSnapshot struct {
	ID      PoolID      `json:"id"`
	LockedX AssetAmount `json:"lockedX"`
	LockedY AssetAmount `json:"lockedY"`
}

// Contains reports whether the pool holds the given token on either side.
func (p PoolSnapshot) Contains(id TokenID) bool {
	return p.LockedX.ID == id || p.LockedY.ID == id
}

// PoolInfo carries indexing metadata for a pool. Its absence means the pool
// is not yet fully indexed.
type PoolInfo struct {
	ID          PoolID `json:"id"`
	ConfirmedAt int64  `json:"confirmedAt"`
}

// PoolVolumeSnapshot is the accumulated traded volume per asset side of one
// pool over a window.
type PoolVolumeSnapshot struct {
	ID      PoolID      `json:"id"`
	VolumeX AssetAmount `json:"volumeX"`
	VolumeY AssetAmount `json:"volumeY"`
	Window  TimeWindow  `json:"window"`
}

// PoolFeesSnapshot is the accrued fee per asset side of one pool over a window.
type PoolFeesSnapshot struct {
	ID     PoolID      `json:"id"`
	FeesX  AssetAmount `json:"feesX"`
	FeesY  AssetAmount `json:"feesY"`
	Window TimeWindow  `json:"window"`
}

// PoolFeesAndVolumes bundles a pool's windowed fees and volume from one query.
type PoolFeesAndVolumes struct {
	Fees   PoolFeesSnapshot   `json:"fees"`
	Volume PoolVolumeSnapshot `json:"volume"`
}

// PoolState is the batched per-pool read: current snapshot plus windowed
// fees/volume and indexing info, all observed in one store scope.
type PoolState struct {
	Pool   PoolSnapshot        `json:"pool"`
	Info   *PoolInfo           `json:"info,omitempty"`
	Fees   *PoolFeesSnapshot   `json:"fees,omitempty"`
	Volume *PoolVolumeSnapshot `json:"volume,omitempty"`
}

// PoolTraceEntry is one append-only historical reserve state of a pool.
// Gix is the strictly increasing global box index; entries are never mutated.
type PoolTraceEntry struct {
	ID      PoolID      `json:"id"`
	LockedX AssetAmount `json:"lockedX"`
	LockedY AssetAmount `json:"lockedY"`
	Height  int64       `json:"height"`
	Gix     int64       `json:"gix"`
}

// AvgAssetAmounts holds pre-aggregated average reserves of one chart bucket.
type AvgAssetAmounts struct {
	AmountX   uint64 `json:"amountX"`
	AmountY   uint64 `json:"amountY"`
	Timestamp int64  `json:"timestamp"`
}

// SwapInfo is a pre-grouped swap record: total swapped amount of one asset
// and the number of transactions that produced it.
type SwapInfo struct {
	Asset  AssetAmount `json:"asset"`
	NumTxs int64       `json:"numTxs"`
}

// DepositInfo is a pre-grouped deposit record covering both pool sides.
type DepositInfo struct {
	AssetX AssetAmount `json:"assetX"`
	AssetY AssetAmount `json:"assetY"`
	NumTxs int64       `json:"numTxs"`
}
