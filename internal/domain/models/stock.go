package models

// StockRecord mirrors one row of the Estoque table. Category is unique.
type StockRecord struct {
	ID        int64      `json:"id,omitempty"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
	Category  string     `json:"categoria"`
	Quantity  int        `json:"quantidade"`
	UnitPrice *float64   `json:"preco_unitario"`
	Note      string     `json:"observacao,omitempty"`
}

// StockWrite is the payload sent when creating or replacing a stock row. A nil
// UnitPrice leaves the stored price untouched on merge.
type StockWrite struct {
	Category  string   `json:"categoria"`
	Quantity  int      `json:"quantidade"`
	UnitPrice *float64 `json:"preco_unitario,omitempty"`
	Note      string   `json:"observacao,omitempty"`
}

// StockLevel is the (category, quantity) projection.
type StockLevel struct {
	Category string `json:"categoria" bson:"categoria"`
	Quantity int    `json:"quantidade" bson:"quantidade"`
}
