package supabase

import (
	"context"
	"fmt"

	"github.com/mamadbah2/brownie/internal/domain/models"
	"github.com/mamadbah2/brownie/pkg/clients/postgrest"
)

const tableCustomers = "Cliente"

// CustomerRepository defines the Cliente table operations.
type CustomerRepository interface {
	List(ctx context.Context) ([]models.Customer, error)
}

// CustomerStore implements CustomerRepository over the remote store client.
type CustomerStore struct {
	client postgrest.Client
}

// NewCustomerStore builds the Cliente adapter.
func NewCustomerStore(client postgrest.Client) *CustomerStore {
	return &CustomerStore{client: client}
}

// List returns every customer.
func (s *CustomerStore) List(ctx context.Context) ([]models.Customer, error) {
	rows := []models.Customer{}
	if err := s.client.Select(ctx, tableCustomers, postgrest.Query{Select: "*"}, &rows); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return rows, nil
}
