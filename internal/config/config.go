package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL          string
	NodeURL              string
	NodeRetryMax         int
	NodeRetryBaseDelay   time.Duration
	CoinGeckoURL         string
	CoinGeckoDelay       time.Duration
	CoinGeckoRetryMax    int
	TokenRegistryURL     string
	TokenRegistryTTL     time.Duration
	FiatCurrency         string
	FiatDecimals         int
	SlippageBucketWidth  int
	AnnualizationDays    int
	DefaultWindow        time.Duration
	RateStaleThreshold   time.Duration
	RateWorkerInterval   time.Duration
	ReportWorkerInterval time.Duration
	ExportSpreadsheetID  string
	GoogleCredentials    string
	ExportFile           string
	AdminAPIKey          string
	HTTPPort             string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:          envOrDefaultWarn("DATABASE_URL", ""),
		NodeURL:              envOrDefault("NODE_URL", "http://127.0.0.1:9053"),
		NodeRetryMax:         envOrDefaultInt("NODE_RETRY_MAX", 5),
		NodeRetryBaseDelay:   envOrDefaultDuration("NODE_RETRY_BASE_DELAY", 2*time.Second),
		CoinGeckoURL:         envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoDelay:       envOrDefaultDuration("COINGECKO_DELAY", 6*time.Second),
		CoinGeckoRetryMax:    envOrDefaultInt("COINGECKO_RETRY_MAX", 5),
		TokenRegistryURL:     envOrDefault("TOKEN_REGISTRY_URL", "https://tokens.ergoplatform.com"),
		TokenRegistryTTL:     envOrDefaultDuration("TOKEN_REGISTRY_TTL", 10*time.Minute),
		FiatCurrency:         envOrDefault("FIAT_CURRENCY", "USD"),
		FiatDecimals:         envOrDefaultInt("FIAT_DECIMALS", 2),
		SlippageBucketWidth:  envOrDefaultInt("SLIPPAGE_BUCKET_WIDTH", 2),
		AnnualizationDays:    envOrDefaultInt("YIELD_ANNUALIZATION_DAYS", 365),
		DefaultWindow:        envOrDefaultDuration("DEFAULT_WINDOW", 24*time.Hour),
		RateStaleThreshold:   envOrDefaultDuration("RATE_STALE_THRESHOLD", 2*time.Hour),
		RateWorkerInterval:   envOrDefaultDuration("RATE_WORKER_INTERVAL", 1*time.Hour),
		ReportWorkerInterval: envOrDefaultDuration("REPORT_WORKER_INTERVAL", 24*time.Hour),
		ExportSpreadsheetID:  envOrDefault("EXPORT_SPREADSHEET_ID", ""),
		GoogleCredentials:    envOrDefault("GOOGLE_CREDENTIALS", ""),
		ExportFile:           envOrDefault("EXPORT_FILE", ""),
		AdminAPIKey:          envOrDefault("ADMIN_API_KEY", ""),
		HTTPPort:             envOrDefault("HTTP_PORT", "8080"),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
