// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used by the publisher and the notification consumer.
const (
	OrderCreatedQueue       = "order.created"
	OrderStatusChangedQueue = "order.status_changed"
)

// OrderItemLine is one line of an order as carried inside events.
type OrderItemLine struct {
	DishID   uint64 `json:"dish_id"`
	Name     string `json:"name"`
	Quantity uint32 `json:"quantity"`
}

// OrderCreatedEvent is published when an order has been committed.  It
// carries enough information for downstream consumers to notify kitchen
// staff or trigger analytics without querying the primary database.
type OrderCreatedEvent struct {
	OrderID         uint64          `json:"order_id"`
	UserID          uint64          `json:"user_id"`
	DeliveryAddress string          `json:"delivery_address"`
	Paid            bool            `json:"paid"`
	TotalCents      int64           `json:"total_cents"`
	Items           []OrderItemLine `json:"items"`
	OrderedAt       string          `json:"ordered_at"`
}

// OrderStatusChangedEvent is published after a successful status update.
type OrderStatusChangedEvent struct {
	OrderID   uint64 `json:"order_id"`
	NewStatus string `json:"new_status"`
	ChangedAt string `json:"changed_at"`
}
