package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/brownie/internal/domain/models"
	"github.com/mamadbah2/brownie/internal/service/stock"
)

type fakeBilling struct {
	summary models.BillingSummary
	err     error
}

func (f fakeBilling) Create(context.Context, models.Charge) (models.Charge, error) {
	return models.Charge{}, nil
}

func (f fakeBilling) CreateFromSale(context.Context, models.Sale) (models.Charge, error) {
	return models.Charge{}, nil
}

func (f fakeBilling) SummarizePending(context.Context) (models.BillingSummary, error) {
	return f.summary, f.err
}

func (f fakeBilling) ListActive(context.Context) ([]models.ChargeView, error) { return nil, nil }

func (f fakeBilling) ListPaid(context.Context) ([]models.ChargeView, error) { return nil, nil }

func (f fakeBilling) MarkPaid(context.Context, string, time.Time, float64) ([]models.Charge, error) {
	return nil, nil
}

type fakeStock struct {
	levels []models.StockLevel
}

func (f fakeStock) GetQuantity(context.Context, string) (int, error) { return 0, nil }

func (f fakeStock) LookupUnitPrice(context.Context, string) stock.PriceLookup {
	return stock.PriceLookup{Outcome: stock.PriceUnknown}
}

func (f fakeStock) SetQuantity(context.Context, string, int) (int, error) { return 0, nil }

func (f fakeStock) UpdateQuantity(context.Context, string, int) (int, error) { return 0, nil }

func (f fakeStock) AddQuantity(context.Context, string, int) (int, error) { return 0, nil }

func (f fakeStock) ListAll(context.Context) ([]models.StockLevel, error) {
	return append([]models.StockLevel(nil), f.levels...), nil
}

func (f fakeStock) ListCategories(context.Context) ([]string, error) { return nil, nil }

type recordingSink struct {
	reports  []models.DailyReport
	messages []string
	err      error
}

func (r *recordingSink) SaveDailyReport(_ context.Context, report models.DailyReport) error {
	r.reports = append(r.reports, report)
	return r.err
}

func (r *recordingSink) ExportDailyReport(_ context.Context, report models.DailyReport) error {
	r.reports = append(r.reports, report)
	return r.err
}

func (r *recordingSink) Notify(_ context.Context, body string) error {
	r.messages = append(r.messages, body)
	return r.err
}

var brt = time.FixedZone("BRT", -3*3600)

func testSummary() models.BillingSummary {
	return models.BillingSummary{
		Pending:         models.BucketSummary{Count: 2, Total: 30},
		Overdue:         models.BucketSummary{Count: 1, Total: 5.5},
		TotalReceivable: 35.5,
	}
}

func TestGenerateDailyReport(t *testing.T) {
	now := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	svc := NewService(
		fakeBilling{summary: testSummary()},
		fakeStock{levels: []models.StockLevel{{Category: "Pizza", Quantity: -3}, {Category: "Brownie", Quantity: 8}}},
		Sinks{}, brt, nil,
	).WithClock(func() time.Time { return now })

	report, err := svc.GenerateDailyReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, brt), report.Date)
	assert.Equal(t, 35.5, report.TotalReceivable)
	assert.Equal(t, []models.StockLevel{{Category: "Brownie", Quantity: 8}, {Category: "Pizza", Quantity: -3}}, report.Stock)
	assert.Equal(t, now, report.CreatedAt)
}

func TestGenerateDailyReport_BillingFailure(t *testing.T) {
	svc := NewService(fakeBilling{err: errors.New("down")}, fakeStock{}, Sinks{}, nil, nil)

	_, err := svc.GenerateDailyReport(context.Background())
	assert.ErrorContains(t, err, "summarize pending charges")
}

func TestPublishDailyReport_SinkFailureDoesNotStopOthers(t *testing.T) {
	store := &recordingSink{err: errors.New("mongo down")}
	exporter := &recordingSink{}
	notifier := &recordingSink{}
	svc := NewService(fakeBilling{summary: testSummary()}, fakeStock{}, Sinks{
		Store:    store,
		Exporter: exporter,
		Notifier: notifier,
	}, time.UTC, nil)

	_, err := svc.PublishDailyReport(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.reports, 1)
	assert.Len(t, exporter.reports, 1)
	assert.Len(t, notifier.messages, 1)
}

func TestPublishDailyReport_NoSinks(t *testing.T) {
	svc := NewService(fakeBilling{summary: testSummary()}, fakeStock{}, Sinks{}, time.UTC, nil)

	_, err := svc.PublishDailyReport(context.Background())
	assert.NoError(t, err)
}

func TestFormatMessage(t *testing.T) {
	report := models.DailyReport{
		Date:            time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Pending:         models.BucketSummary{Count: 2, Total: 30},
		Overdue:         models.BucketSummary{Count: 1, Total: 5.5},
		TotalReceivable: 35.5,
		Stock:           []models.StockLevel{{Category: "Brownie", Quantity: 8}},
	}

	want := "Relatório diário 2025-06-01\n" +
		"Cobranças pendentes: 2 (R$ 30.00)\n" +
		"Cobranças vencidas: 1 (R$ 5.50)\n" +
		"Total a receber: R$ 35.50\n" +
		"Estoque:\n- Brownie: 8"
	assert.Equal(t, want, FormatMessage(report, time.UTC))

	report.Stock = nil
	assert.Contains(t, FormatMessage(report, time.UTC), "Estoque: sem registros.")
}
