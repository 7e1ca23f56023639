package model

import "time"

// Order status values.  Transitions are one-directional:
// ordered -> processing -> delivering -> completed.  "completed" is
// terminal.  CanTransition is the single authority consulted before any
// status write.
const (
	StatusOrdered    = "ordered"
	StatusProcessing = "processing"
	StatusDelivering = "delivering"
	StatusCompleted  = "completed"
)

// forwardTransitions maps a current status to the only status it may
// advance to.
var forwardTransitions = map[string]string{
	StatusOrdered:    StatusProcessing,
	StatusProcessing: StatusDelivering,
	StatusDelivering: StatusCompleted,
}

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusOrdered, StatusProcessing, StatusDelivering, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether an order currently in `from` may be moved
// to `to`.  Backward moves, skips and writes on a completed order are all
// rejected.
func CanTransition(from, to string) bool {
	return forwardTransitions[from] == to
}

// Order records a user's placed order.  Each lifecycle transition stamps
// the matching timestamp column; timestamps for states not yet reached
// are nil.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who placed the order.
//  DeliveryAddress – where the order is delivered.
//  Status          – one of the Status* constants.
//  Paid            – whether the order has been paid.
//  OrderedAt       – set when the order row is inserted.
//  ProcessingAt    – set when status becomes "processing" (nullable).
//  DeliveringAt    – set when status becomes "delivering" (nullable).
//  CompletedAt     – set when status becomes "completed" (nullable).
//  Items           – line items, loaded by the repository on reads.
type Order struct {
	ID              uint64      `json:"id"`
	UserID          uint64      `json:"user_id"`
	DeliveryAddress string      `json:"delivery_address"`
	Status          string      `json:"status"`
	Paid            bool        `json:"paid"`
	OrderedAt       time.Time   `json:"ordered_at"`
	ProcessingAt    *time.Time  `json:"processing_at,omitempty"`
	DeliveringAt    *time.Time  `json:"delivering_at,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	Items           []OrderItem `json:"items"`
}

// OrderItem is a (dish, quantity) line within an order.  UnitPriceCents
// snapshots the catalog price at order time, so later price edits do not
// rewrite order history.  DishName is denormalized at read time.
type OrderItem struct {
	DishID         uint64 `json:"dish_id"`
	DishName       string `json:"dish_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       uint32 `json:"quantity"`
}
