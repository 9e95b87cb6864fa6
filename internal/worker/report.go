package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// ReportExporter writes the pool analytics report for a window.
type ReportExporter interface {
	Export(ctx context.Context, w domain.TimeWindow) error
}

// ReportWorker periodically exports the pool analytics report over a
// trailing window.
type ReportWorker struct {
	exporter ReportExporter
	interval time.Duration
	window   time.Duration
}

// NewReportWorker creates a new ReportWorker exporting every interval over
// the trailing window.
func NewReportWorker(exporter ReportExporter, interval, window time.Duration) *ReportWorker {
	return &ReportWorker{
		exporter: exporter,
		interval: interval,
		window:   window,
	}
}

func (w *ReportWorker) export(ctx context.Context) {
	window := domain.TrailingWindow(time.Now().UTC(), w.window)
	if err := w.exporter.Export(ctx, window); err != nil {
		slog.Error("ReportWorker: export failed", "error", err)
	} else {
		slog.Info("ReportWorker: export completed")
	}
}

// Run starts the report worker loop. It blocks until the context is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	slog.Info("ReportWorker: starting")

	// Export immediately on startup
	w.export(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ReportWorker: shutting down")
			return
		case <-ticker.C:
			w.export(ctx)
		}
	}
}
