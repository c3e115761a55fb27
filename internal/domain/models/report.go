package models

import "time"

// DailyReport is the end-of-day snapshot of receivables and stock.
type DailyReport struct {
	Date            time.Time     `bson:"date" json:"date"`
	Pending         BucketSummary `bson:"pending" json:"pendentes"`
	Overdue         BucketSummary `bson:"overdue" json:"vencidas"`
	TotalReceivable float64       `bson:"total_receivable" json:"total_a_receber"`
	Stock           []StockLevel  `bson:"stock" json:"estoque"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
}
