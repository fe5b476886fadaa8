package domain

import "time"

type OrderStatus string

// Orders are created as processing. Later lifecycle transitions are an admin
// concern handled outside this service.
const OrderStatusProcessing OrderStatus = "processing"

type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Status    OrderStatus `json:"status"`
	Currency  string      `json:"currency"`
	Subtotal  int64       `json:"subtotal"`
	Total     int64       `json:"total"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"items,omitempty"`
}

// OrderSummary is the shape returned by POST /api/orders.
type OrderSummary struct {
	ID        string      `json:"id"`
	Subtotal  int64       `json:"subtotal"`
	Total     int64       `json:"total"`
	Currency  string      `json:"currency"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (o *Order) Summary() OrderSummary {
	return OrderSummary{
		ID:        o.ID,
		Subtotal:  o.Subtotal,
		Total:     o.Total,
		Currency:  o.Currency,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

// StockShortage reports one unsatisfiable order line. Available is the stock
// observed while the placement transaction ran; after a lost decrement race it
// is re-read and therefore a best-effort diagnostic, not a consistent snapshot.
type StockShortage struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Available int    `json:"available"`
}
