package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/domain/models"
	repo "github.com/mamadbah2/brownie/internal/repository/supabase"
	"github.com/mamadbah2/brownie/internal/service/billing"
	"github.com/mamadbah2/brownie/internal/service/stock"
)

const (
	stalledInsertError = "interrupted before the sale insert was confirmed; check the Venda table"

	defaultRecoveryGrace = 2 * time.Minute
)

var saleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:brownie:sale"))

// Recorder records sales and finishes interrupted ones.
type Recorder interface {
	// RecordSale runs the workflow for one request. Calls sharing a
	// requestKey are the same sale; an empty key always records a new one.
	RecordSale(ctx context.Context, requestKey string, sale models.Sale) (models.Sale, error)
	Recover(ctx context.Context) (RecoveryResult, error)
}

// RecoveryResult counts what a recovery sweep did.
type RecoveryResult struct {
	Resumed   int
	Completed int
	Failed    int
	Skipped   int
}

// Options tunes the workflow. RecoveryGrace is both the lease a run holds on
// its record and the idle time after which the sweep picks a record up.
type Options struct {
	RecoveryGrace time.Duration
	Now           func() time.Time
}

// Service runs the sale, charge and stock writes of a sale as a journaled
// sequence of steps.
type Service struct {
	sales   repo.SaleRepository
	billing billing.Ledger
	stock   stock.Ledger
	journal Journal
	opts    Options
	logger  *zap.Logger
}

// NewService wires the sale workflow. A nil journal disables journaling.
func NewService(sales repo.SaleRepository, charges billing.Ledger, ledger stock.Ledger, journal Journal, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = NopJournal{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RecoveryGrace <= 0 {
		opts.RecoveryGrace = defaultRecoveryGrace
	}
	return &Service{
		sales:   sales,
		billing: charges,
		stock:   ledger,
		journal: journal,
		opts:    opts,
		logger:  logger,
	}
}

// RecordSale inserts the sale, derives its charge and decrements stock.
// Repeating a requestKey resumes or returns the earlier sale instead of
// recording another one.
func (s *Service) RecordSale(ctx context.Context, requestKey string, sale models.Sale) (models.Sale, error) {
	key := WorkflowKey(requestKey)
	logger := s.logger.With(zap.String("workflow", key))

	existing, err := s.journal.Get(ctx, key)
	if err != nil {
		logger.Warn("journal read failed", zap.Error(err))
		existing = nil
	}
	if existing != nil {
		return s.resume(ctx, existing)
	}

	prepared, err := s.prepare(ctx, sale)
	if err != nil {
		return models.Sale{}, err
	}

	now := s.opts.Now()
	workflow := &models.SaleWorkflow{
		Key:        key,
		State:      models.WorkflowCreated,
		Sale:       prepared,
		CreatedAt:  now,
		UpdatedAt:  now,
		LeaseUntil: now.Add(s.opts.RecoveryGrace),
	}

	created, err := s.journal.Create(ctx, *workflow)
	switch {
	case err != nil:
		logger.Warn("journal create failed, recording without journal", zap.Error(err))
	case !created:
		current, err := s.journal.Get(ctx, key)
		if err != nil {
			return models.Sale{}, apperror.Wrap(apperror.KindUnavailable, err,
				"não foi possível consultar o andamento da venda %s", key)
		}
		if current == nil {
			return models.Sale{}, inFlight(key)
		}
		return s.resume(ctx, current)
	}

	return s.run(ctx, workflow)
}

// resume continues a journaled sale once its lease is taken.
func (s *Service) resume(ctx context.Context, workflow *models.SaleWorkflow) (models.Sale, error) {
	logger := s.logger.With(zap.String("workflow", workflow.Key), zap.String("state", string(workflow.State)))

	if workflow.State == models.WorkflowComplete {
		logger.Info("sale already recorded", zap.Int64("sale_id", workflow.Sale.ID))
		return workflow.Sale, nil
	}

	claimed, err := s.claim(ctx, workflow)
	if err != nil {
		return models.Sale{}, apperror.Wrap(apperror.KindUnavailable, err,
			"não foi possível reservar a venda %s", workflow.Key)
	}
	if !claimed {
		logger.Warn("sale is being recorded by another request")
		return models.Sale{}, inFlight(workflow.Key)
	}

	if workflow.State == models.WorkflowFailed {
		logger.Info("retrying failed sale")
		workflow.State = models.WorkflowCreated
		workflow.LastError = ""
	} else {
		logger.Info("resuming sale")
	}
	return s.run(ctx, workflow)
}

// claim takes the lease of workflow as it was read from the journal.
func (s *Service) claim(ctx context.Context, workflow *models.SaleWorkflow) (bool, error) {
	now := s.opts.Now()
	until := now.Add(s.opts.RecoveryGrace)
	ok, err := s.journal.Claim(ctx, *workflow, now, until)
	if err != nil || !ok {
		return false, err
	}
	workflow.UpdatedAt = now
	workflow.LeaseUntil = until
	return true, nil
}

// Recover resumes records stalled after the sale insert and fails those
// that never confirmed it. Records another run holds are skipped.
func (s *Service) Recover(ctx context.Context) (RecoveryResult, error) {
	var result RecoveryResult

	stalled, err := s.journal.ListStalled(ctx, s.opts.Now().Add(-s.opts.RecoveryGrace))
	if err != nil {
		return result, fmt.Errorf("list stalled sales: %w", err)
	}

	for i := range stalled {
		workflow := &stalled[i]
		logger := s.logger.With(zap.String("workflow", workflow.Key), zap.String("state", string(workflow.State)))

		claimed, err := s.claim(ctx, workflow)
		if err != nil || !claimed {
			logger.Info("stalled sale skipped", zap.Bool("claimed", claimed), zap.Error(err))
			result.Skipped++
			continue
		}

		if workflow.State == models.WorkflowCreated {
			workflow.State = models.WorkflowFailed
			workflow.LastError = stalledInsertError
			s.save(ctx, workflow, false)
			logger.Warn("stalled sale marked failed")
			result.Failed++
			continue
		}

		result.Resumed++
		if _, err := s.run(ctx, workflow); err != nil {
			logger.Error("resume stalled sale", zap.Error(err))
			continue
		}
		result.Completed++
	}

	return result, nil
}

func inFlight(key string) error {
	return apperror.New(apperror.KindConflict,
		"a venda %s já está sendo processada; tente novamente em instantes", key)
}

// prepare fills a missing unit price and total before anything is written.
func (s *Service) prepare(ctx context.Context, sale models.Sale) (models.Sale, error) {
	if sale.UnitPrice == nil {
		lookup := s.stock.LookupUnitPrice(ctx, sale.Category)
		switch lookup.Outcome {
		case stock.PriceKnown:
			price := lookup.Price
			sale.UnitPrice = &price
		case stock.PriceLookupFailed:
			return models.Sale{}, apperror.Wrap(apperror.KindUnavailable, lookup.Err,
				"não foi possível obter o preço unitário de '%s'", sale.Category)
		}
	}

	if sale.TotalAmount == 0 && sale.UnitPrice != nil {
		sale.TotalAmount = decimal.NewFromFloat(*sale.UnitPrice).
			Mul(decimal.NewFromInt(int64(sale.Units))).
			InexactFloat64()
	}
	return sale, nil
}

// run executes the remaining steps from the record's current state.
func (s *Service) run(ctx context.Context, workflow *models.SaleWorkflow) (models.Sale, error) {
	for !workflow.State.Terminal() {
		if err := s.step(ctx, workflow); err != nil {
			workflow.Attempts++
			workflow.LastError = err.Error()
			s.save(ctx, workflow, false)
			s.logger.Error("sale step failed",
				zap.String("workflow", workflow.Key),
				zap.String("state", string(workflow.State)),
				zap.Int("attempts", workflow.Attempts),
				zap.Error(err))
			return models.Sale{}, err
		}
		workflow.LastError = ""
		s.save(ctx, workflow, !workflow.State.Terminal())
	}

	s.logger.Info("sale recorded",
		zap.String("workflow", workflow.Key),
		zap.Int64("sale_id", workflow.Sale.ID),
		zap.Int64("charge_id", workflow.ChargeID))
	return workflow.Sale, nil
}

func (s *Service) step(ctx context.Context, workflow *models.SaleWorkflow) error {
	switch workflow.State {
	case models.WorkflowCreated:
		inserted, err := s.sales.Insert(ctx, workflow.Sale)
		if err != nil {
			return err
		}
		workflow.Sale = inserted
		workflow.State = models.WorkflowSaleInserted

	case models.WorkflowSaleInserted:
		charge, err := s.billing.CreateFromSale(ctx, workflow.Sale)
		if err != nil {
			return err
		}
		workflow.ChargeID = charge.ID
		workflow.State = models.WorkflowChargeInserted

	case models.WorkflowChargeInserted:
		quantity, err := s.stock.AddQuantity(ctx, workflow.Sale.Category, -workflow.Sale.Units)
		if err != nil {
			return err
		}
		workflow.StockAfter = &quantity
		workflow.State = models.WorkflowStockAdjusted

	case models.WorkflowStockAdjusted:
		workflow.State = models.WorkflowComplete

	default:
		return apperror.New(apperror.KindUnexpected, "estado desconhecido no fluxo da venda: %q", workflow.State)
	}
	return nil
}

// save persists the record, keeping the lease while hold is set. Journal
// failures are logged, never returned.
func (s *Service) save(ctx context.Context, workflow *models.SaleWorkflow, hold bool) {
	now := s.opts.Now()
	workflow.UpdatedAt = now
	workflow.LeaseUntil = time.Time{}
	if hold {
		workflow.LeaseUntil = now.Add(s.opts.RecoveryGrace)
	}
	if err := s.journal.Save(ctx, *workflow); err != nil {
		s.logger.Warn("journal write failed",
			zap.String("workflow", workflow.Key),
			zap.String("state", string(workflow.State)),
			zap.Error(err))
	}
}

// WorkflowKey maps a caller's request key to its journal key. An empty
// request key gets a fresh random key, so the sale is always recorded anew.
func WorkflowKey(requestKey string) string {
	requestKey = strings.TrimSpace(requestKey)
	if requestKey == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(saleNamespace, []byte(requestKey)).String()
}
