package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/ergoplatform/dex-stats/internal/api"
	"github.com/ergoplatform/dex-stats/internal/config"
	"github.com/ergoplatform/dex-stats/internal/database"
	"github.com/ergoplatform/dex-stats/internal/domain"
	"github.com/ergoplatform/dex-stats/internal/export"
	"github.com/ergoplatform/dex-stats/internal/node"
	"github.com/ergoplatform/dex-stats/internal/rates"
	"github.com/ergoplatform/dex-stats/internal/solver"
	"github.com/ergoplatform/dex-stats/internal/stats"
	"github.com/ergoplatform/dex-stats/internal/storage"
	"github.com/ergoplatform/dex-stats/internal/tokens"
	"github.com/ergoplatform/dex-stats/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "dexstats",
		Usage: "AMM pool analytics for the Ergo DEX",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the analytics HTTP API and background workers",
				Action: runServe,
			},
			{
				Name:  "export",
				Usage: "write a one-shot pool analytics report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "write the report to an .xlsx file at `PATH` instead of Google Sheets",
					},
					&cli.DurationFlag{
						Name:  "window",
						Value: 24 * time.Hour,
						Usage: "trailing report window",
					},
				},
				Action: runExport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// services bundles everything built on top of the database connection.
type services struct {
	pool  *pgxpool.Pool
	stats *stats.Service
	rates *rates.Service
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolStore := storage.NewPgPools(pool, cfg.DefaultWindow)
	orderStore := storage.NewPgOrders(pool, cfg.DefaultWindow)
	marketStore := storage.NewPgMarkets(pool)

	nodeClient := node.NewClient(cfg.NodeURL, cfg.NodeRetryMax, cfg.NodeRetryBaseDelay)
	registry := tokens.NewRegistry(cfg.TokenRegistryURL, cfg.NodeRetryMax, cfg.NodeRetryBaseDelay, cfg.TokenRegistryTTL)

	coingecko := rates.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoDelay, cfg.CoinGeckoRetryMax)
	quoteRepo := rates.NewPgQuoteRepository(pool)
	rateSvc := rates.NewService(coingecko, quoteRepo, []string{cfg.FiatCurrency}, cfg.RateStaleThreshold)

	fiatSolver := solver.NewFiatSolver(solver.NewCryptoSolver(marketStore), rateSvc)

	statsSvc := stats.NewService(poolStore, orderStore, nodeClient, registry, fiatSolver, stats.Config{
		Fiat: domain.FiatUnits{
			Currency: cfg.FiatCurrency,
			Decimals: int32(cfg.FiatDecimals),
		},
		SlippageBucketWidth: int64(cfg.SlippageBucketWidth),
		AnnualizationDays:   cfg.AnnualizationDays,
		DefaultWindow:       cfg.DefaultWindow,
	})

	return &services{pool: pool, stats: statsSvc, rates: rateSvc}, nil
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	svcs, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svcs.pool.Close()

	rateWorker := worker.NewRateWorker(svcs.rates, cfg.RateWorkerInterval)
	go rateWorker.Run(ctx)

	if writer, err := sheetWriter(ctx, cfg, cfg.ExportFile); err != nil {
		return err
	} else if writer != nil {
		exportSvc := export.NewService(svcs.stats, writer)
		reportWorker := worker.NewReportWorker(exportSvc, cfg.ReportWorkerInterval, cfg.DefaultWindow)
		go reportWorker.Run(ctx)
	} else {
		slog.Info("report export not configured, skipping report worker")
	}

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, rate refresh endpoint is unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, svcs.stats, svcs.rates, cfg.AdminAPIKey)

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func runExport(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	svcs, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svcs.pool.Close()

	// Reports value pools in fiat, so make sure a quote exists before building.
	if err := svcs.rates.FetchAndStoreQuotes(ctx); err != nil {
		slog.Warn("fetching fiat quotes failed, stored quotes will be used", "error", err)
	}

	file := c.String("file")
	if file == "" {
		file = cfg.ExportFile
	}
	writer, err := sheetWriter(ctx, cfg, file)
	if err != nil {
		return err
	}
	if writer == nil {
		return fmt.Errorf("no report destination: pass --file or set EXPORT_SPREADSHEET_ID and GOOGLE_CREDENTIALS")
	}

	exportSvc := export.NewService(svcs.stats, writer)
	window := domain.TrailingWindow(time.Now().UTC(), c.Duration("window"))
	if err := exportSvc.Export(ctx, window); err != nil {
		return fmt.Errorf("exporting report: %w", err)
	}

	log.Println("Report written")
	return nil
}

// sheetWriter picks the report destination: an explicit .xlsx path wins,
// then a configured Google spreadsheet, then nil when neither is set.
func sheetWriter(ctx context.Context, cfg config.Config, file string) (export.SheetWriter, error) {
	if file != "" {
		return export.NewExcelWriter(file), nil
	}
	if cfg.ExportSpreadsheetID == "" || cfg.GoogleCredentials == "" {
		return nil, nil
	}
	creds, err := os.ReadFile(cfg.GoogleCredentials)
	if err != nil {
		return nil, fmt.Errorf("reading Google credentials: %w", err)
	}
	return export.NewSheetsWriter(ctx, cfg.ExportSpreadsheetID, string(creds))
}
