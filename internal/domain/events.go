package domain

import "time"

// OrderPlacedEvent is published to Kafka after a placement transaction
// commits. It carries everything the notification worker needs so the worker
// never has to read the database.
type OrderPlacedEvent struct {
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Currency  string      `json:"currency"`
	Total     int64       `json:"total"`
	Items     []OrderItem `json:"items"`
	Timestamp time.Time   `json:"timestamp"`
}

const TopicOrderPlaced = "order.placed"
