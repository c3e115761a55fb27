package models

// Charge mirrors one row of the Cobranca table. Paid only moves false → true.
type Charge struct {
	ID        int64      `json:"id,omitempty"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
	Paid      bool       `json:"status_pagamento"`
	Client    string     `json:"cliente"`
	DueDate   Timestamp  `json:"vencimento"`
	SaleDate  *Timestamp `json:"data_venda,omitempty"`
	Amount    float64    `json:"valor"`
}

// ChargeStatus is the display status of a charge.
type ChargeStatus string

const (
	ChargePending ChargeStatus = "Pendente"
	ChargeOverdue ChargeStatus = "Vencido"
	ChargePaid    ChargeStatus = "Pago"
)

// ChargeView is the list projection with a date-only due date.
type ChargeView struct {
	Client  string       `json:"cliente"`
	DueDate string       `json:"vencimento"`
	Amount  float64      `json:"valor"`
	Status  ChargeStatus `json:"status"`
}

// BucketSummary counts and sums the charges of one bucket.
type BucketSummary struct {
	Count int     `json:"quantidade" bson:"quantidade"`
	Total float64 `json:"valor_total" bson:"valor_total"`
}

// BillingSummary splits unpaid charges into pending and overdue.
type BillingSummary struct {
	Pending         BucketSummary `json:"pendentes"`
	Overdue         BucketSummary `json:"vencidas"`
	TotalReceivable float64       `json:"total_a_receber"`
	Unpaid          []Charge      `json:"cobrancas_nao_pagas"`
}
