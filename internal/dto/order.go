package dto

import (
	"time"

	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/store"
)

// LineItemPayload carries one order line over transport layers.
type LineItemPayload struct {
	SKU       string  `json:"sku" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// CreateOrderRequest is the payload accepted by POST /orders.
type CreateOrderRequest struct {
	CustomerID   string            `json:"customer_id" validate:"required"`
	CustomerName string            `json:"customer_name"`
	Items        []LineItemPayload `json:"items" validate:"required,min=1,dive"`
	Status       string            `json:"status" validate:"omitempty,oneof=Pending Processing Shipped Completed Cancelled"`
}

// ToEntity maps the request onto a new order record.
func (r CreateOrderRequest) ToEntity() *entity.Order {
	items := make([]entity.LineItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = entity.LineItem{SKU: item.SKU, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	return &entity.Order{
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		Items:        items,
		Status:       entity.OrderStatus(r.Status),
	}
}

// UpdateOrderRequest is the payload accepted by PATCH /orders/:id. Absent
// fields leave the record untouched.
type UpdateOrderRequest struct {
	Status       *string           `json:"status" validate:"omitempty,oneof=Pending Processing Shipped Completed Cancelled"`
	CustomerName *string           `json:"customer_name"`
	Items        []LineItemPayload `json:"items" validate:"omitempty,min=1,dive"`
}

// ToPatch maps the request onto a store patch.
func (r UpdateOrderRequest) ToPatch() store.Patch {
	p := store.Patch{Status: r.Status, CustomerName: r.CustomerName}
	if len(r.Items) > 0 {
		p.Items = make([]entity.LineItem, len(r.Items))
		for i, item := range r.Items {
			p.Items[i] = entity.LineItem{SKU: item.SKU, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
		}
	}
	return p
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID           int64             `json:"id"`
	CustomerID   string            `json:"customer_id"`
	CustomerName string            `json:"customer_name,omitempty"`
	Items        []LineItemPayload `json:"items"`
	Total        float64           `json:"total"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// FromOrder maps an order record to its response shape.
func FromOrder(order *entity.Order) OrderResponse {
	items := make([]LineItemPayload, len(order.Items))
	for i, item := range order.Items {
		items[i] = LineItemPayload{SKU: item.SKU, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	return OrderResponse{
		ID:           order.ID,
		CustomerID:   order.CustomerID,
		CustomerName: order.CustomerName,
		Items:        items,
		Total:        order.Total,
		Status:       string(order.Status),
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

// FromOrders maps a slice of order records.
func FromOrders(orders []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, order := range orders {
		out[i] = FromOrder(order)
	}
	return out
}
