package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/ergoplatform/dex-stats/internal/stats"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, statsSvc *stats.Service, quotes QuoteFetcher, adminAPIKey string) *http.Server {
	handler := NewHandler(statsSvc, quotes)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/platform/stats", handler.GetPlatformStats)
	mux.HandleFunc("GET /api/v1/pools/summary", handler.GetPoolsSummary)
	mux.HandleFunc("GET /api/v1/pools/stats", handler.GetPoolsStats)
	mux.HandleFunc("GET /api/v1/pools/stats/v2", handler.GetPoolsStatsV2)
	mux.HandleFunc("GET /api/v1/pools/{id}/stats", handler.GetPoolStats)
	mux.HandleFunc("GET /api/v1/pools/{id}/slippage", handler.GetPoolSlippage)
	mux.HandleFunc("GET /api/v1/pools/{id}/chart", handler.GetPoolChart)
	mux.HandleFunc("GET /api/v1/volume/swaps", handler.GetSwapVolume)
	mux.HandleFunc("GET /api/v1/volume/deposits", handler.GetDepositVolume)
	mux.HandleFunc("GET /api/v1/convert", handler.ConvertToFiat)

	refreshHandler := http.HandlerFunc(handler.RefreshRates)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/rates/refresh", requireAuth(adminAPIKey, refreshHandler))
	} else {
		mux.Handle("POST /api/v1/rates/refresh", refreshHandler)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
