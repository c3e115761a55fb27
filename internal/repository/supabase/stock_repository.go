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
	tableStock     = "Estoque"
	stockConflict  = "categoria"
	columnCategory = "categoria"
	columnQuantity = "quantidade"
)

// StockRepository defines the Estoque table operations.
type StockRepository interface {
	Find(ctx context.Context, category string) (models.StockRecord, error)
	List(ctx context.Context) ([]models.StockLevel, error)
	Categories(ctx context.Context) ([]string, error)
	UnitPrice(ctx context.Context, category string) (price *float64, found bool, err error)
	Upsert(ctx context.Context, write models.StockWrite) (models.StockRecord, error)
	InsertIfAbsent(ctx context.Context, write models.StockWrite) (models.StockRecord, bool, error)
	CompareAndSwap(ctx context.Context, expected int, write models.StockWrite) (models.StockRecord, bool, error)
	Update(ctx context.Context, write models.StockWrite) (models.StockRecord, error)
}

// StockStore implements StockRepository over the remote store client.
type StockStore struct {
	client postgrest.Client
	logger *zap.Logger
}

// NewStockStore builds the Estoque adapter.
func NewStockStore(client postgrest.Client, logger *zap.Logger) *StockStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockStore{client: client, logger: logger}
}

// Find returns the row for category or a not_found error.
func (s *StockStore) Find(ctx context.Context, category string) (models.StockRecord, error) {
	var rows []models.StockRecord
	q := postgrest.Query{Select: "*"}.Where(postgrest.Eq(columnCategory, category))
	if err := s.client.Select(ctx, tableStock, q, &rows); err != nil {
		return models.StockRecord{}, fmt.Errorf("find stock %s: %w", category, err)
	}
	if len(rows) == 0 {
		return models.StockRecord{}, apperror.NotFound("a categoria de produto '%s' não foi encontrada", category)
	}
	return rows[0], nil
}

// List returns every (category, quantity) pair.
func (s *StockStore) List(ctx context.Context) ([]models.StockLevel, error) {
	rows := []models.StockLevel{}
	if err := s.client.Select(ctx, tableStock, postgrest.Query{Select: "categoria,quantidade"}, &rows); err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	return rows, nil
}

// Categories returns every category name.
func (s *StockStore) Categories(ctx context.Context) ([]string, error) {
	var rows []struct {
		Category string `json:"categoria"`
	}
	if err := s.client.Select(ctx, tableStock, postgrest.Query{Select: "categoria"}, &rows); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]string, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, row.Category)
	}
	return categories, nil
}

// UnitPrice reads the stored price. found is false when no row exists; a row
// with a null price yields (nil, true, nil).
func (s *StockStore) UnitPrice(ctx context.Context, category string) (*float64, bool, error) {
	var rows []struct {
		UnitPrice *float64 `json:"preco_unitario"`
	}
	q := postgrest.Query{Select: "preco_unitario"}.Where(postgrest.Eq(columnCategory, category))
	if err := s.client.Select(ctx, tableStock, q, &rows); err != nil {
		return nil, false, fmt.Errorf("lookup unit price %s: %w", category, err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0].UnitPrice, true, nil
}

// Upsert writes the row, merging into an existing one with the same category.
func (s *StockStore) Upsert(ctx context.Context, write models.StockWrite) (models.StockRecord, error) {
	var rows []models.StockRecord
	if err := s.client.Upsert(ctx, tableStock, stockConflict, postgrest.MergeDuplicates, write, &rows); err != nil {
		return models.StockRecord{}, fmt.Errorf("upsert stock %s: %w", write.Category, err)
	}
	return firstOrWrite(rows, write), nil
}

// InsertIfAbsent creates the row only when the category is new. The boolean
// is false when a row already existed and nothing was written.
func (s *StockStore) InsertIfAbsent(ctx context.Context, write models.StockWrite) (models.StockRecord, bool, error) {
	var rows []models.StockRecord
	if err := s.client.Upsert(ctx, tableStock, stockConflict, postgrest.IgnoreDuplicates, write, &rows); err != nil {
		return models.StockRecord{}, false, fmt.Errorf("insert stock %s: %w", write.Category, err)
	}
	if len(rows) == 0 {
		return models.StockRecord{}, false, nil
	}
	return rows[0], true, nil
}

// CompareAndSwap replaces the row only while its quantity still equals
// expected. The boolean is false when another writer got there first.
func (s *StockStore) CompareAndSwap(ctx context.Context, expected int, write models.StockWrite) (models.StockRecord, bool, error) {
	var rows []models.StockRecord
	filters := []postgrest.Filter{
		postgrest.Eq(columnCategory, write.Category),
		postgrest.Eq(columnQuantity, expected),
	}
	err := s.client.Update(ctx, tableStock, filters, write, &rows)
	switch {
	case apperror.IsNotFound(err):
		s.logger.Debug("stock compare-and-swap lost", zap.String("category", write.Category), zap.Int("expected", expected))
		return models.StockRecord{}, false, nil
	case err != nil:
		return models.StockRecord{}, false, fmt.Errorf("swap stock %s: %w", write.Category, err)
	}
	return firstOrWrite(rows, write), true, nil
}

// Update patches an existing row; not_found when the category has no row.
func (s *StockStore) Update(ctx context.Context, write models.StockWrite) (models.StockRecord, error) {
	var rows []models.StockRecord
	filters := []postgrest.Filter{postgrest.Eq(columnCategory, write.Category)}
	if err := s.client.Update(ctx, tableStock, filters, write, &rows); err != nil {
		if apperror.IsNotFound(err) {
			return models.StockRecord{}, apperror.NotFound("a categoria '%s' pode não existir", write.Category)
		}
		return models.StockRecord{}, fmt.Errorf("update stock %s: %w", write.Category, err)
	}
	return firstOrWrite(rows, write), nil
}

func firstOrWrite(rows []models.StockRecord, write models.StockWrite) models.StockRecord {
	if len(rows) > 0 {
		return rows[0]
	}
	return models.StockRecord{
		Category:  write.Category,
		Quantity:  write.Quantity,
		UnitPrice: write.UnitPrice,
		Note:      write.Note,
	}
}
