package models

// Customer mirrors one row of the Cliente table.
type Customer struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status bool   `json:"status"`
}
