package models

// Sale mirrors one row of the Venda table. Category references a StockRecord
// by name only.
type Sale struct {
	ID          int64      `json:"id,omitempty" bson:"id,omitempty"`
	CreatedAt   *Timestamp `json:"created_at,omitempty" bson:"-"`
	Client      string     `json:"cliente" bson:"cliente"`
	Category    string     `json:"categoria_produto" bson:"categoria_produto"`
	Units       int        `json:"qtd_unidades" bson:"qtd_unidades"`
	UnitPrice   *float64   `json:"valor_unitario" bson:"valor_unitario,omitempty"`
	Paid        bool       `json:"status_pagamento" bson:"status_pagamento"`
	SaleDate    Timestamp  `json:"data_venda" bson:"data_venda"`
	DueDate     Timestamp  `json:"data_vencimento" bson:"data_vencimento"`
	TotalAmount float64    `json:"valor_total" bson:"valor_total"`
}
