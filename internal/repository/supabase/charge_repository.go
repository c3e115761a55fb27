package supabase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/domain/models"
	"github.com/mamadbah2/brownie/pkg/clients/postgrest"
)

const (
	tableCharges  = "Cobranca"
	columnPaid    = "status_pagamento"
	columnClient  = "cliente"
	columnAmount  = "valor"
	columnDueDate = "vencimento"
	columnID      = "id"
)

// ChargeRepository defines the Cobranca table operations.
type ChargeRepository interface {
	Insert(ctx context.Context, charge models.Charge) (models.Charge, error)
	ListByPaid(ctx context.Context, paid bool) ([]models.Charge, error)
	FindMatching(ctx context.Context, client string, amount float64, from, to time.Time) ([]models.Charge, error)
	MarkPaid(ctx context.Context, id int64) ([]models.Charge, error)
}

// ChargeStore implements ChargeRepository over the remote store client.
type ChargeStore struct {
	client postgrest.Client
	logger *zap.Logger
}

// NewChargeStore builds the Cobranca adapter.
func NewChargeStore(client postgrest.Client, logger *zap.Logger) *ChargeStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChargeStore{client: client, logger: logger}
}

// Insert stores a new charge and returns the created row.
func (s *ChargeStore) Insert(ctx context.Context, charge models.Charge) (models.Charge, error) {
	charge.ID = 0
	charge.CreatedAt = nil

	var rows []models.Charge
	if err := s.client.Insert(ctx, tableCharges, charge, &rows); err != nil {
		return models.Charge{}, fmt.Errorf("insert charge for %s: %w", charge.Client, err)
	}
	if len(rows) == 0 {
		return models.Charge{}, apperror.New(apperror.KindUnexpected, "o armazenamento remoto não retornou a cobrança inserida")
	}
	return rows[0], nil
}

// ListByPaid returns every charge with the given paid flag.
func (s *ChargeStore) ListByPaid(ctx context.Context, paid bool) ([]models.Charge, error) {
	rows := []models.Charge{}
	q := postgrest.Query{Select: "*"}.Where(postgrest.Eq(columnPaid, paid))
	if err := s.client.Select(ctx, tableCharges, q, &rows); err != nil {
		return nil, fmt.Errorf("list charges paid=%t: %w", paid, err)
	}
	return rows, nil
}

// FindMatching returns charges for client and amount due in [from, to), oldest first.
func (s *ChargeStore) FindMatching(ctx context.Context, client string, amount float64, from, to time.Time) ([]models.Charge, error) {
	rows := []models.Charge{}
	q := postgrest.Query{Select: "*", Order: "id.asc"}.Where(
		postgrest.Eq(columnClient, client),
		postgrest.Eq(columnAmount, amount),
		postgrest.Gte(columnDueDate, from),
		postgrest.Lt(columnDueDate, to),
	)
	if err := s.client.Select(ctx, tableCharges, q, &rows); err != nil {
		return nil, fmt.Errorf("find charges for %s: %w", client, err)
	}
	return rows, nil
}

// MarkPaid sets the paid flag of one charge and returns the updated rows.
func (s *ChargeStore) MarkPaid(ctx context.Context, id int64) ([]models.Charge, error) {
	var rows []models.Charge
	filters := []postgrest.Filter{postgrest.Eq(columnID, id)}
	if err := s.client.Update(ctx, tableCharges, filters, map[string]bool{columnPaid: true}, &rows); err != nil {
		return nil, fmt.Errorf("mark charge %d paid: %w", id, err)
	}
	return rows, nil
}
