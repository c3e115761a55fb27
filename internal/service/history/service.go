package history

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/domain/models"
	repo "github.com/mamadbah2/brownie/internal/repository/supabase"
)

// DefaultPageSize applies when no page size is configured.
const DefaultPageSize = 20

// Reader exposes the sales history of a category.
type Reader interface {
	ListByCategory(ctx context.Context, category string) ([]models.Sale, error)
	Paginate(ctx context.Context, category string, page, size int) ([]models.Sale, error)
}

// Service reads the Venda table by category.
type Service struct {
	repo     repo.SaleRepository
	pageSize int
	logger   *zap.Logger
}

// NewService constructs the history reader. A non-positive pageSize falls
// back to DefaultPageSize.
func NewService(repository repo.SaleRepository, pageSize int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{repo: repository, pageSize: pageSize, logger: logger}
}

// ListByCategory returns every sale of a category ordered by id.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]models.Sale, error) {
	return s.repo.ListByCategory(ctx, category)
}

// Paginate returns the 1-based page of a category's history. Pages past the
// end are empty. A size of 0 uses the configured page size.
func (s *Service) Paginate(ctx context.Context, category string, page, size int) ([]models.Sale, error) {
	if page <= 0 {
		return nil, apperror.Validation("a página deve ser maior que zero", map[string]string{"pagina": "gt=0"})
	}
	if size < 0 {
		return nil, apperror.Validation("o tamanho da página não pode ser negativo", map[string]string{"tamanho": "gte=0"})
	}
	if size == 0 {
		size = s.pageSize
	}

	sales, err := s.repo.PageByCategory(ctx, category, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("history page served",
		zap.String("category", category),
		zap.Int("page", page),
		zap.Int("size", size),
		zap.Int("returned", len(sales)))
	return sales, nil
}
