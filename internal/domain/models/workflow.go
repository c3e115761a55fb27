package models

import "time"

// WorkflowState is a step of the sale workflow.
type WorkflowState string

const (
	WorkflowCreated        WorkflowState = "created"
	WorkflowSaleInserted   WorkflowState = "sale_inserted"
	WorkflowChargeInserted WorkflowState = "charge_inserted"
	WorkflowStockAdjusted  WorkflowState = "stock_adjusted"
	WorkflowComplete       WorkflowState = "complete"
	WorkflowFailed         WorkflowState = "failed"
)

// Terminal reports whether no further step will run for the state.
func (s WorkflowState) Terminal() bool {
	return s == WorkflowComplete || s == WorkflowFailed
}

// SaleWorkflow journals the progress of one recorded sale across the sale,
// charge and stock writes. LeaseUntil is set while a process is running the
// steps; nobody else may run them before it passes.
type SaleWorkflow struct {
	Key        string        `bson:"_id" json:"key"`
	State      WorkflowState `bson:"state" json:"state"`
	Sale       Sale          `bson:"sale" json:"sale"`
	ChargeID   int64         `bson:"charge_id,omitempty" json:"charge_id,omitempty"`
	StockAfter *int          `bson:"stock_after,omitempty" json:"stock_after,omitempty"`
	Attempts   int           `bson:"attempts" json:"attempts"`
	LastError  string        `bson:"last_error,omitempty" json:"last_error,omitempty"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `bson:"updated_at" json:"updated_at"`
	LeaseUntil time.Time     `bson:"lease_until,omitempty" json:"lease_until,omitempty"`
}

// Leased reports whether another run holds the record at now.
func (w SaleWorkflow) Leased(now time.Time) bool {
	return now.Before(w.LeaseUntil)
}
