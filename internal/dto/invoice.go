package dto

import (
	"time"

	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/store"
)

// CreateInvoiceRequest is the form payload accepted by POST /invoices. The
// optional document part is handled by the transport layer, not bound here.
type CreateInvoiceRequest struct {
	OrderID    int64   `json:"order_id" form:"order_id" validate:"required,gt=0"`
	CustomerID string  `json:"customer_id" form:"customer_id" validate:"required"`
	Number     string  `json:"number" form:"number" validate:"required"`
	Amount     float64 `json:"amount" form:"amount" validate:"required,gt=0"`
	Status     string  `json:"status" form:"status" validate:"omitempty,oneof=Draft Submitted Paid Rejected"`
}

// ToEntity maps the request onto a new invoice record.
func (r CreateInvoiceRequest) ToEntity() *entity.Invoice {
	return &entity.Invoice{
		OrderID:    r.OrderID,
		CustomerID: r.CustomerID,
		Number:     r.Number,
		Amount:     r.Amount,
		Status:     entity.InvoiceStatus(r.Status),
	}
}

// UpdateInvoiceRequest is the payload accepted by PATCH /invoices/:id.
type UpdateInvoiceRequest struct {
	Status *string  `json:"status" validate:"omitempty,oneof=Draft Submitted Paid Rejected"`
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
}

// ToPatch maps the request onto a store patch.
func (r UpdateInvoiceRequest) ToPatch() store.Patch {
	return store.Patch{Status: r.Status, Amount: r.Amount}
}

// FilePayload describes an attached document.
type FilePayload struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// InvoiceResponse represents an invoice as exposed via transport layers.
type InvoiceResponse struct {
	ID         int64        `json:"id"`
	OrderID    int64        `json:"order_id"`
	CustomerID string       `json:"customer_id"`
	Number     string       `json:"number"`
	Amount     float64      `json:"amount"`
	Status     string       `json:"status"`
	File       *FilePayload `json:"file,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// FromInvoice maps an invoice record to its response shape.
func FromInvoice(invoice *entity.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:         invoice.ID,
		OrderID:    invoice.OrderID,
		CustomerID: invoice.CustomerID,
		Number:     invoice.Number,
		Amount:     invoice.Amount,
		Status:     string(invoice.Status),
		CreatedAt:  invoice.CreatedAt,
	}
	if invoice.File.Name != "" {
		resp.File = &FilePayload{Name: invoice.File.Name, Size: invoice.File.Size, SHA256: invoice.File.SHA256}
	}
	return resp
}

// FromInvoices maps a slice of invoice records.
func FromInvoices(invoices []*entity.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i, invoice := range invoices {
		out[i] = FromInvoice(invoice)
	}
	return out
}
