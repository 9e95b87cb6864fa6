package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

type mockExporter struct {
	callCount  atomic.Int32
	lastWindow atomic.Value
}

func (m *mockExporter) Export(_ context.Context, w domain.TimeWindow) error {
	m.callCount.Add(1)
	m.lastWindow.Store(w)
	return nil
}

func TestReportWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockExporter{}
	w := NewReportWorker(mock, 50*time.Millisecond, 24*time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial export + some ticks
	if got := mock.callCount.Load(); got < 1 {
		t.Errorf("call count = %d, want >= 1", got)
	}

	window, ok := mock.lastWindow.Load().(domain.TimeWindow)
	if !ok {
		t.Fatal("exporter never received a window")
	}
	if window.From == nil || window.To == nil {
		t.Fatal("expected a fully bounded trailing window")
	}
	if got := *window.To - *window.From; got != (24 * time.Hour).Milliseconds() {
		t.Errorf("window length = %dms, want 24h", got)
	}
}
