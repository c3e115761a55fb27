package customers

import (
	"context"

	"github.com/mamadbah2/brownie/internal/domain/models"
	repo "github.com/mamadbah2/brownie/internal/repository/supabase"
)

// Directory lists registered customers.
type Directory interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
}

// Service reads the Cliente table.
type Service struct {
	repo repo.CustomerRepository
}

func NewService(repository repo.CustomerRepository) *Service {
	return &Service{repo: repository}
}

// ListCustomers returns every customer as stored.
func (s *Service) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return s.repo.List(ctx)
}
