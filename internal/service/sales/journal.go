package sales

import (
	"context"
	"time"

	"github.com/mamadbah2/brownie/internal/domain/models"
)

// Journal persists sale workflow records between steps.
type Journal interface {
	// Get returns the record for key, or nil when none exists.
	Get(ctx context.Context, key string) (*models.SaleWorkflow, error)
	// Create stores a new record. It returns false, without writing, when
	// the key is already taken.
	Create(ctx context.Context, workflow models.SaleWorkflow) (bool, error)
	// Claim takes the lease of a record as observed by the caller: it only
	// succeeds while state and updated_at are unchanged and no live lease is
	// held at now. On success updated_at becomes now and the lease runs
	// until the given time.
	Claim(ctx context.Context, observed models.SaleWorkflow, now, until time.Time) (bool, error)
	Save(ctx context.Context, workflow models.SaleWorkflow) error
	// ListStalled returns non-terminal records last updated before the cutoff.
	ListStalled(ctx context.Context, before time.Time) ([]models.SaleWorkflow, error)
}

// NopJournal keeps nothing. Sales still run every step; retries and
// partial failures are simply not recoverable.
type NopJournal struct{}

func (NopJournal) Get(context.Context, string) (*models.SaleWorkflow, error) { return nil, nil }

func (NopJournal) Create(context.Context, models.SaleWorkflow) (bool, error) { return true, nil }

func (NopJournal) Claim(context.Context, models.SaleWorkflow, time.Time, time.Time) (bool, error) {
	return true, nil
}

func (NopJournal) Save(context.Context, models.SaleWorkflow) error { return nil }

func (NopJournal) ListStalled(context.Context, time.Time) ([]models.SaleWorkflow, error) {
	return nil, nil
}
