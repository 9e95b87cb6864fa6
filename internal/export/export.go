package export

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ergoplatform/dex-stats/internal/domain"
)

// ReportRow is one pool line of the periodic analytics report.
type ReportRow struct {
	PoolID            domain.PoolID
	BaseTicker        string
	QuoteTicker       string
	LastPrice         *decimal.Decimal
	TVL               decimal.Decimal
	Volume            decimal.Decimal
	Fees              decimal.Decimal
	YearlyFeesPercent decimal.Decimal
	Currency          string
}

// SheetWriter writes report rows to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, rows []ReportRow) error
}

// StatsSource is the analytics surface the report is built from.
type StatsSource interface {
	PoolsStatsV2(ctx context.Context, w domain.TimeWindow) ([]domain.PoolStats, error)
	PoolsSummary(ctx context.Context) ([]domain.PoolSummary, error)
}

// Service builds the pool analytics report and delegates writing to a
// SheetWriter.
type Service struct {
	stats  StatsSource
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(stats StatsSource, writer SheetWriter) *Service {
	return &Service{stats: stats, writer: writer}
}

// Export computes the current pool statistics, enriches them with pair
// tickers and spot prices where a native pairing exists, and writes the
// report. Implements worker.ReportExporter.
func (s *Service) Export(ctx context.Context, w domain.TimeWindow) error {
	poolsStats, err := s.stats.PoolsStatsV2(ctx, w)
	if err != nil {
		return fmt.Errorf("computing pool stats: %w", err)
	}
	summaries, err := s.stats.PoolsSummary(ctx)
	if err != nil {
		return fmt.Errorf("computing pool summaries: %w", err)
	}

	summaryByID := lo.KeyBy(summaries, func(sm domain.PoolSummary) domain.PoolID { return sm.ID })

	rows := make([]ReportRow, 0, len(poolsStats))
	for _, st := range poolsStats {
		row := ReportRow{
			PoolID:            st.ID,
			BaseTicker:        st.LockedX.Ticker,
			QuoteTicker:       st.LockedY.Ticker,
			TVL:               st.TVL.Value,
			Volume:            st.Volume.Value,
			Fees:              st.Fees.Value,
			YearlyFeesPercent: st.YearlyFeesPercent,
			Currency:          st.TVL.Units.Currency,
		}
		if sm, ok := summaryByID[st.ID]; ok {
			row.BaseTicker = sm.BaseTicker
			row.QuoteTicker = sm.QuoteTicker
			price := sm.LastPrice
			row.LastPrice = &price
		}
		rows = append(rows, row)
	}

	// Deepest pools first.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TVL.GreaterThan(rows[j].TVL) })

	return s.writer.Write(ctx, rows)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
