package entity

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderCompleted  OrderStatus = "Completed"
	OrderCancelled  OrderStatus = "Cancelled"
)

// orderTransitions lists the statuses reachable from each status. The
// lifecycle only moves forward; Cancelled is reachable from any non-terminal
// status and, like Completed, is terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderShipped, OrderCompleted, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCompleted, OrderCancelled},
	OrderShipped:    {OrderCompleted, OrderCancelled},
	OrderCompleted:  {},
	OrderCancelled:  {},
}

// ParseOrderStatus validates a status value received from a caller.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch s := OrderStatus(raw); s {
	case OrderPending, OrderProcessing, OrderShipped, OrderCompleted, OrderCancelled:
		return s, nil
	default:
		return "", errorbank.Unprocessable("invalid order status", errorbank.WithDetail("status", raw))
	}
}

// CanTransition reports whether the lifecycle may move from s to next.
// Re-asserting the current status is not a transition; callers treat it as a
// no-op before consulting this.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// LineItem is a single priced position on an order.
type LineItem struct {
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Order is a purchase order record.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           int64       `bun:",pk,autoincrement"`
	CustomerID   string      `bun:"customer_id"`
	CustomerName string      `bun:"customer_name"`
	Items        []LineItem  `bun:"items"`
	Total        float64     `bun:"total"`
	Status       OrderStatus `bun:"status"`
	CreatedAt    time.Time   `bun:"created_at,nullzero"`
	UpdatedAt    time.Time   `bun:"updated_at,nullzero"`
}

func (o *Order) RecordID() int64  { return o.ID }
func (o *Order) RecordKind() Kind { return KindOrder }

// ItemsTotal computes the order total from its line items.
func (o *Order) ItemsTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}

// Validate checks create-time invariants. The stored Total is derived, so it
// is recomputed by stores rather than validated here.
func (o *Order) Validate() error {
	if o.CustomerID == "" {
		return errorbank.Unprocessable("customer id is required")
	}
	if len(o.Items) == 0 {
		return errorbank.Unprocessable("order requires at least one line item")
	}
	for i, item := range o.Items {
		if item.SKU == "" {
			return errorbank.Unprocessable("line item sku is required", errorbank.WithDetail("index", i))
		}
		if item.Quantity <= 0 {
			return errorbank.Unprocessable("line item quantity must be positive", errorbank.WithDetail("sku", item.SKU))
		}
		if item.UnitPrice < 0 {
			return errorbank.Unprocessable("line item unit price must not be negative", errorbank.WithDetail("sku", item.SKU))
		}
	}
	if o.Status != "" {
		if _, err := ParseOrderStatus(string(o.Status)); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy including line items.
func (o *Order) Clone() Record {
	cp := *o
	cp.Items = make([]LineItem, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}
