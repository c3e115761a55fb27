package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/domain/models"
	repo "github.com/mamadbah2/brownie/internal/repository/supabase"
)

// Ledger describes the charge operations used by the HTTP layer, the sale
// workflow and the daily report.
type Ledger interface {
	Create(ctx context.Context, charge models.Charge) (models.Charge, error)
	CreateFromSale(ctx context.Context, sale models.Sale) (models.Charge, error)
	SummarizePending(ctx context.Context) (models.BillingSummary, error)
	ListActive(ctx context.Context) ([]models.ChargeView, error)
	ListPaid(ctx context.Context) ([]models.ChargeView, error)
	MarkPaid(ctx context.Context, client string, dueDate time.Time, amount float64) ([]models.Charge, error)
}

// Options tunes the ledger. Location defaults to UTC and Now to time.Now.
type Options struct {
	Location *time.Location
	Now      func() time.Time
}

// Service implements Ledger on top of the Cobranca table.
type Service struct {
	repo   repo.ChargeRepository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewService constructs a billing ledger.
func NewService(repository repo.ChargeRepository, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repository, loc: opts.Location, now: opts.Now, logger: logger}
}

// Create inserts a manually registered charge.
func (s *Service) Create(ctx context.Context, charge models.Charge) (models.Charge, error) {
	created, err := s.repo.Insert(ctx, charge)
	if err != nil {
		return models.Charge{}, err
	}
	s.logger.Info("charge created",
		zap.Int64("id", created.ID),
		zap.String("client", created.Client),
		zap.Float64("amount", created.Amount))
	return created, nil
}

// CreateFromSale derives the charge owed for a recorded sale and inserts it.
func (s *Service) CreateFromSale(ctx context.Context, sale models.Sale) (models.Charge, error) {
	charge := models.Charge{
		Paid:    sale.Paid,
		Client:  sale.Client,
		DueDate: sale.DueDate,
		Amount:  sale.TotalAmount,
	}
	if !sale.SaleDate.IsZero() {
		saleDate := sale.SaleDate
		charge.SaleDate = &saleDate
	}
	return s.Create(ctx, charge)
}

// SummarizePending splits unpaid charges into pending (due strictly after
// now) and overdue (due at or before now).
func (s *Service) SummarizePending(ctx context.Context) (models.BillingSummary, error) {
	unpaid, err := s.repo.ListByPaid(ctx, false)
	if err != nil {
		return models.BillingSummary{}, err
	}

	now := s.now()
	pendingTotal := decimal.Zero
	overdueTotal := decimal.Zero
	summary := models.BillingSummary{Unpaid: unpaid}

	for _, charge := range unpaid {
		amount := decimal.NewFromFloat(charge.Amount)
		if charge.DueDate.After(now) {
			summary.Pending.Count++
			pendingTotal = pendingTotal.Add(amount)
			continue
		}
		summary.Overdue.Count++
		overdueTotal = overdueTotal.Add(amount)
	}

	summary.Pending.Total = pendingTotal.InexactFloat64()
	summary.Overdue.Total = overdueTotal.InexactFloat64()
	summary.TotalReceivable = pendingTotal.Add(overdueTotal).InexactFloat64()
	return summary, nil
}

// ListActive returns unpaid charges, marked Vencido when their due date falls
// before today in the business timezone.
func (s *Service) ListActive(ctx context.Context) ([]models.ChargeView, error) {
	unpaid, err := s.repo.ListByPaid(ctx, false)
	if err != nil {
		return nil, err
	}

	today := models.StartOfDay(s.now().In(s.loc), s.loc)
	views := make([]models.ChargeView, 0, len(unpaid))
	for _, charge := range unpaid {
		status := models.ChargePending
		if models.StartOfDay(charge.DueDate.In(s.loc), s.loc).Before(today) {
			status = models.ChargeOverdue
		}
		views = append(views, s.view(charge, status))
	}
	return views, nil
}

// ListPaid returns every settled charge.
func (s *Service) ListPaid(ctx context.Context) ([]models.ChargeView, error) {
	paid, err := s.repo.ListByPaid(ctx, true)
	if err != nil {
		return nil, err
	}

	views := make([]models.ChargeView, 0, len(paid))
	for _, charge := range paid {
		views = append(views, s.view(charge, models.ChargePaid))
	}
	return views, nil
}

// MarkPaid settles the charge of client for amount due on the calendar date
// of dueDate. When several charges match, only the oldest unpaid one is
// settled; when all matches are already paid they are returned unchanged.
func (s *Service) MarkPaid(ctx context.Context, client string, dueDate time.Time, amount float64) ([]models.Charge, error) {
	start := models.StartOfDay(dueDate, s.loc)
	candidates, err := s.repo.FindMatching(ctx, client, amount, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperror.NotFound("nenhuma cobrança encontrada para '%s' com valor %.2f e vencimento em %s",
			client, amount, models.DateOnly(start, s.loc))
	}

	for _, charge := range candidates {
		if charge.Paid {
			continue
		}
		rows, err := s.repo.MarkPaid(ctx, charge.ID)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 1 {
			s.logger.Warn("several charges share client, amount and due date; settled the oldest",
				zap.String("client", client),
				zap.Int("matches", len(candidates)),
				zap.Int64("id", charge.ID))
		}
		s.logger.Info("charge paid", zap.Int64("id", charge.ID), zap.String("client", client))
		return rows, nil
	}

	s.logger.Info("charge already paid", zap.String("client", client), zap.Int("matches", len(candidates)))
	return candidates, nil
}

func (s *Service) view(charge models.Charge, status models.ChargeStatus) models.ChargeView {
	return models.ChargeView{
		Client:  charge.Client,
		DueDate: models.DateOnly(charge.DueDate.Time, s.loc),
		Amount:  charge.Amount,
		Status:  status,
	}
}
