package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ergoplatform/dex-stats/internal/domain"
	"github.com/ergoplatform/dex-stats/internal/stats"
)

const (
	defaultSlippageDepth   = 50
	defaultChartResolution = int(time.Hour / time.Millisecond)
)

// QuoteFetcher triggers an immediate refresh of the native asset's fiat quote.
type QuoteFetcher interface {
	FetchAndStoreQuotes(ctx context.Context) error
}

// Handler provides HTTP endpoints for the analytics API.
type Handler struct {
	stats  *stats.Service
	quotes QuoteFetcher
}

// NewHandler creates a new API handler.
func NewHandler(statsSvc *stats.Service, quotes QuoteFetcher) *Handler {
	return &Handler{stats: statsSvc, quotes: quotes}
}

// GetPlatformStats handles GET /api/v1/platform/stats.
func (h *Handler) GetPlatformStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.stats.PlatformSummary(r.Context(), parseWindow(r))
	if err != nil {
		slog.Error("failed to compute platform stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetPoolsSummary handles GET /api/v1/pools/summary.
func (h *Handler) GetPoolsSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.stats.PoolsSummary(r.Context())
	if err != nil {
		slog.Error("failed to compute pools summary", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetPoolsStats handles GET /api/v1/pools/stats.
func (h *Handler) GetPoolsStats(w http.ResponseWriter, r *http.Request) {
	poolsStats, err := h.stats.PoolsStats(r.Context(), parseWindow(r))
	if err != nil {
		slog.Error("failed to compute pools stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, poolsStats)
}

// GetPoolsStatsV2 handles GET /api/v1/pools/stats/v2, the batched variant.
func (h *Handler) GetPoolsStatsV2(w http.ResponseWriter, r *http.Request) {
	poolsStats, err := h.stats.PoolsStatsV2(r.Context(), parseWindow(r))
	if err != nil {
		slog.Error("failed to compute pools stats v2", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, poolsStats)
}

// GetPoolStats handles GET /api/v1/pools/{id}/stats.
func (h *Handler) GetPoolStats(w http.ResponseWriter, r *http.Request) {
	id := domain.PoolID(r.PathValue("id"))
	poolStats, err := h.stats.PoolStats(r.Context(), id, parseWindow(r))
	if err != nil {
		slog.Error("failed to compute pool stats", "pool", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if poolStats == nil {
		writeError(w, http.StatusNotFound, "pool not found")
		return
	}
	writeJSON(w, http.StatusOK, poolStats)
}

// GetPoolSlippage handles GET /api/v1/pools/{id}/slippage.
func (h *Handler) GetPoolSlippage(w http.ResponseWriter, r *http.Request) {
	id := domain.PoolID(r.PathValue("id"))
	depth := queryInt(r, "blocks", defaultSlippageDepth)

	slippage, err := h.stats.AvgSlippage(r.Context(), id, depth)
	if err != nil {
		slog.Error("failed to compute pool slippage", "pool", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if slippage == nil {
		writeError(w, http.StatusNotFound, "pool not found")
		return
	}
	writeJSON(w, http.StatusOK, slippage)
}

// GetPoolChart handles GET /api/v1/pools/{id}/chart.
func (h *Handler) GetPoolChart(w http.ResponseWriter, r *http.Request) {
	id := domain.PoolID(r.PathValue("id"))
	resolution := queryInt(r, "resolution", defaultChartResolution)

	points, err := h.stats.PriceChart(r.Context(), id, parseWindow(r), resolution)
	if err != nil {
		slog.Error("failed to build pool price chart", "pool", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// GetSwapVolume handles GET /api/v1/volume/swaps.
func (h *Handler) GetSwapVolume(w http.ResponseWriter, r *http.Request) {
	info, err := h.stats.SwapVolume(r.Context(), parseWindow(r))
	if err != nil {
		slog.Error("failed to summarize swap volume", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetDepositVolume handles GET /api/v1/volume/deposits.
func (h *Handler) GetDepositVolume(w http.ResponseWriter, r *http.Request) {
	info, err := h.stats.DepositVolume(r.Context(), parseWindow(r))
	if err != nil {
		slog.Error("failed to summarize deposit volume", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ConvertToFiat handles GET /api/v1/convert.
func (h *Handler) ConvertToFiat(w http.ResponseWriter, r *http.Request) {
	id := domain.TokenID(r.URL.Query().Get("tokenId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "tokenId is required")
		return
	}
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount, expected unsigned integer base units")
		return
	}

	eq, err := h.stats.ConvertToFiat(r.Context(), id, amount)
	if err != nil {
		slog.Error("failed to convert token amount", "token", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if eq == nil {
		writeError(w, http.StatusNotFound, "no price path for token")
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

// RefreshRates handles POST /api/v1/rates/refresh.
func (h *Handler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	if err := h.quotes.FetchAndStoreQuotes(r.Context()); err != nil {
		slog.Error("failed to refresh rate quotes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to refresh quotes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseWindow reads the optional from/to query bounds in unix milliseconds.
// Missing bounds stay nil and are resolved downstream.
func parseWindow(r *http.Request) domain.TimeWindow {
	var w domain.TimeWindow
	if v := r.URL.Query().Get("from"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			w.From = &n
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			w.To = &n
		}
	}
	return w
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
