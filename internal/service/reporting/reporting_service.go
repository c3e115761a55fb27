package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/domain/models"
	"github.com/mamadbah2/brownie/internal/service/billing"
	"github.com/mamadbah2/brownie/internal/service/stock"
)

// ReportStore keeps report snapshots.
type ReportStore interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// ReportExporter publishes a report outside the application.
type ReportExporter interface {
	ExportDailyReport(ctx context.Context, report models.DailyReport) error
}

// Notifier delivers a text message.
type Notifier interface {
	Notify(ctx context.Context, body string) error
}

// Sinks lists where a report goes. Nil sinks are skipped.
type Sinks struct {
	Store    ReportStore
	Exporter ReportExporter
	Notifier Notifier
}

// Service builds the end-of-day report from the billing and stock ledgers.
type Service struct {
	billing billing.Ledger
	stock   stock.Ledger
	sinks   Sinks
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(charges billing.Ledger, ledger stock.Ledger, sinks Sinks, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		billing: charges,
		stock:   ledger,
		sinks:   sinks,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GenerateDailyReport snapshots receivables and stock levels for today.
func (s *Service) GenerateDailyReport(ctx context.Context) (models.DailyReport, error) {
	summary, err := s.billing.SummarizePending(ctx)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("summarize pending charges: %w", err)
	}

	levels, err := s.stock.ListAll(ctx)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("list stock levels: %w", err)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Category < levels[j].Category })

	now := s.now()
	return models.DailyReport{
		Date:            models.StartOfDay(now.In(s.loc), s.loc),
		Pending:         summary.Pending,
		Overdue:         summary.Overdue,
		TotalReceivable: summary.TotalReceivable,
		Stock:           levels,
		CreatedAt:       now,
	}, nil
}

// PublishDailyReport generates the report and hands it to every configured
// sink. A failing sink does not stop the others.
func (s *Service) PublishDailyReport(ctx context.Context) (models.DailyReport, error) {
	report, err := s.GenerateDailyReport(ctx)
	if err != nil {
		return models.DailyReport{}, err
	}

	date := models.DateOnly(report.Date, s.loc)
	if s.sinks.Store != nil {
		if err := s.sinks.Store.SaveDailyReport(ctx, report); err != nil {
			s.logger.Error("failed to store daily report", zap.String("date", date), zap.Error(err))
		}
	}
	if s.sinks.Exporter != nil {
		if err := s.sinks.Exporter.ExportDailyReport(ctx, report); err != nil {
			s.logger.Error("failed to export daily report", zap.String("date", date), zap.Error(err))
		}
	}
	if s.sinks.Notifier != nil {
		if err := s.sinks.Notifier.Notify(ctx, FormatMessage(report, s.loc)); err != nil {
			s.logger.Error("failed to notify manager", zap.String("date", date), zap.Error(err))
		}
	}

	s.logger.Info("daily report published",
		zap.String("date", date),
		zap.Float64("total_receivable", report.TotalReceivable),
		zap.Int("categories", len(report.Stock)))
	return report, nil
}

// FormatMessage renders the report as a short text for the manager.
func FormatMessage(report models.DailyReport, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Relatório diário %s\n", models.DateOnly(report.Date, loc))
	fmt.Fprintf(&b, "Cobranças pendentes: %d (R$ %s)\n", report.Pending.Count, money(report.Pending.Total))
	fmt.Fprintf(&b, "Cobranças vencidas: %d (R$ %s)\n", report.Overdue.Count, money(report.Overdue.Total))
	fmt.Fprintf(&b, "Total a receber: R$ %s\n", money(report.TotalReceivable))

	if len(report.Stock) == 0 {
		b.WriteString("Estoque: sem registros.")
		return b.String()
	}
	b.WriteString("Estoque:")
	for _, level := range report.Stock {
		fmt.Fprintf(&b, "\n- %s: %d", level.Category, level.Quantity)
	}
	return b.String()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
