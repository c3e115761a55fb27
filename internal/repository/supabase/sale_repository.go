package supabase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/domain/models"
	"github.com/mamadbah2/brownie/pkg/clients/postgrest"
)

const (
	tableSales         = "Venda"
	columnSaleCategory = "categoria_produto"
	historyOrder       = "id.asc"
)

// SaleRepository defines the Venda table operations.
type SaleRepository interface {
	Insert(ctx context.Context, sale models.Sale) (models.Sale, error)
	ListByCategory(ctx context.Context, category string) ([]models.Sale, error)
	PageByCategory(ctx context.Context, category string, offset, limit int) ([]models.Sale, error)
}

// SaleStore implements SaleRepository over the remote store client.
type SaleStore struct {
	client postgrest.Client
	logger *zap.Logger
}

// NewSaleStore builds the Venda adapter.
func NewSaleStore(client postgrest.Client, logger *zap.Logger) *SaleStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleStore{client: client, logger: logger}
}

// Insert posts the sale as a one-element array and returns the stored row.
func (s *SaleStore) Insert(ctx context.Context, sale models.Sale) (models.Sale, error) {
	sale.ID = 0
	sale.CreatedAt = nil

	var rows []models.Sale
	if err := s.client.Insert(ctx, tableSales, []models.Sale{sale}, &rows); err != nil {
		return models.Sale{}, fmt.Errorf("insert sale for %s: %w", sale.Client, err)
	}
	if len(rows) == 0 {
		return models.Sale{}, apperror.New(apperror.KindUnexpected, "o armazenamento remoto não retornou a venda inserida")
	}
	return rows[0], nil
}

// ListByCategory returns the full history of a category.
func (s *SaleStore) ListByCategory(ctx context.Context, category string) ([]models.Sale, error) {
	return s.selectSales(ctx, postgrest.Query{Select: "*", Order: historyOrder}.Where(postgrest.Eq(columnSaleCategory, category)))
}

// PageByCategory returns at most limit sales of a category starting at offset.
func (s *SaleStore) PageByCategory(ctx context.Context, category string, offset, limit int) ([]models.Sale, error) {
	q := postgrest.Query{Select: "*", Order: historyOrder, Offset: offset, Limit: limit}.
		Where(postgrest.Eq(columnSaleCategory, category))
	return s.selectSales(ctx, q)
}

func (s *SaleStore) selectSales(ctx context.Context, q postgrest.Query) ([]models.Sale, error) {
	rows := []models.Sale{}
	if err := s.client.Select(ctx, tableSales, q, &rows); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return rows, nil
}
