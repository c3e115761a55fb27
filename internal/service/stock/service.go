package stock

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/domain/models"
	repo "github.com/mamadbah2/brownie/internal/repository/supabase"
)

const setNote = "Atualizacao de estoque"

// PriceOutcome tells a known price apart from an absent one and from a failed lookup.
type PriceOutcome int

const (
	PriceKnown PriceOutcome = iota
	PriceUnknown
	PriceLookupFailed
)

// PriceLookup is the result of a unit price lookup. Err is set only for PriceLookupFailed.
type PriceLookup struct {
	Outcome PriceOutcome
	Price   float64
	Err     error
}

// Ledger describes the stock operations used by the HTTP layer and the sale workflow.
type Ledger interface {
	GetQuantity(ctx context.Context, category string) (int, error)
	LookupUnitPrice(ctx context.Context, category string) PriceLookup
	SetQuantity(ctx context.Context, category string, quantity int) (int, error)
	UpdateQuantity(ctx context.Context, category string, quantity int) (int, error)
	AddQuantity(ctx context.Context, category string, delta int) (int, error)
	ListAll(ctx context.Context) ([]models.StockLevel, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// Options tunes the ledger.
type Options struct {
	PriceTimeout time.Duration
	CASAttempts  int
}

// Service implements Ledger on top of the Estoque table.
type Service struct {
	repo   repo.StockRepository
	opts   Options
	logger *zap.Logger
}

// NewService constructs a stock ledger.
func NewService(repository repo.StockRepository, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CASAttempts <= 0 {
		opts.CASAttempts = 5
	}
	return &Service{repo: repository, opts: opts, logger: logger}
}

// GetQuantity returns the stored quantity or not_found.
func (s *Service) GetQuantity(ctx context.Context, category string) (int, error) {
	rec, err := s.repo.Find(ctx, category)
	if err != nil {
		return 0, err
	}
	return rec.Quantity, nil
}

// LookupUnitPrice reads the last known price of a category. A missing row or
// a null price is PriceUnknown; transport or upstream failures are PriceLookupFailed.
func (s *Service) LookupUnitPrice(ctx context.Context, category string) PriceLookup {
	if s.opts.PriceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.PriceTimeout)
		defer cancel()
	}

	price, found, err := s.repo.UnitPrice(ctx, category)
	switch {
	case err != nil:
		s.logger.Warn("unit price lookup failed", zap.String("category", category), zap.Error(err))
		return PriceLookup{Outcome: PriceLookupFailed, Err: err}
	case !found || price == nil:
		return PriceLookup{Outcome: PriceUnknown}
	default:
		return PriceLookup{Outcome: PriceKnown, Price: *price}
	}
}

// SetQuantity upserts an absolute quantity, carrying the known price forward.
func (s *Service) SetQuantity(ctx context.Context, category string, quantity int) (int, error) {
	write := models.StockWrite{
		Category:  category,
		Quantity:  quantity,
		UnitPrice: s.carriedPrice(ctx, category),
		Note:      setNote,
	}

	rec, err := s.repo.Upsert(ctx, write)
	if err != nil {
		return 0, err
	}

	s.logger.Info("stock set", zap.String("category", category), zap.Int("quantity", rec.Quantity))
	return rec.Quantity, nil
}

// UpdateQuantity sets the quantity of an existing category only.
func (s *Service) UpdateQuantity(ctx context.Context, category string, quantity int) (int, error) {
	rec, err := s.repo.Update(ctx, models.StockWrite{Category: category, Quantity: quantity, Note: setNote})
	if err != nil {
		return 0, err
	}
	return rec.Quantity, nil
}

// AddQuantity adds delta (possibly negative) to the stored quantity, treating
// an absent category as 0. There is no floor. Each write only lands if the
// quantity read is still current; lost races are retried.
func (s *Service) AddQuantity(ctx context.Context, category string, delta int) (int, error) {
	note := addNote(delta)

	for attempt := 1; attempt <= s.opts.CASAttempts; attempt++ {
		current, err := s.repo.Find(ctx, category)
		if apperror.IsNotFound(err) {
			zero := 0.0
			rec, inserted, err := s.repo.InsertIfAbsent(ctx, models.StockWrite{
				Category:  category,
				Quantity:  delta,
				UnitPrice: &zero,
				Note:      note,
			})
			if err != nil {
				return 0, err
			}
			if inserted {
				s.logger.Info("stock created", zap.String("category", category), zap.Int("quantity", rec.Quantity))
				return rec.Quantity, nil
			}
			continue
		}
		if err != nil {
			return 0, err
		}

		write := models.StockWrite{
			Category:  category,
			Quantity:  current.Quantity + delta,
			UnitPrice: priceOrZero(current.UnitPrice),
			Note:      note,
		}
		rec, swapped, err := s.repo.CompareAndSwap(ctx, current.Quantity, write)
		if err != nil {
			return 0, err
		}
		if swapped {
			s.logger.Info("stock adjusted",
				zap.String("category", category),
				zap.Int("delta", delta),
				zap.Int("quantity", rec.Quantity))
			return rec.Quantity, nil
		}

		s.logger.Warn("concurrent stock write, retrying",
			zap.String("category", category),
			zap.Int("attempt", attempt))
	}

	return 0, apperror.New(apperror.KindConflict,
		"estoque da categoria '%s' alterado concorrentemente; tente novamente", category)
}

// ListAll returns every (category, quantity) pair.
func (s *Service) ListAll(ctx context.Context) ([]models.StockLevel, error) {
	return s.repo.List(ctx)
}

// ListCategories returns every category name.
func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// carriedPrice returns the price to write: the known one, 0 when unknown, and
// nil on lookup failure so the merge keeps whatever is stored.
func (s *Service) carriedPrice(ctx context.Context, category string) *float64 {
	lookup := s.LookupUnitPrice(ctx, category)
	switch lookup.Outcome {
	case PriceKnown:
		price := lookup.Price
		return &price
	case PriceUnknown:
		zero := 0.0
		return &zero
	default:
		return nil
	}
}

func priceOrZero(price *float64) *float64 {
	value := 0.0
	if price != nil {
		value = *price
	}
	return &value
}

func addNote(delta int) string {
	if delta < 0 {
		return fmt.Sprintf("Baixa de %d unidade(s) do estoque", -delta)
	}
	return fmt.Sprintf("Adicao de %d unidade(s) ao estoque", delta)
}
