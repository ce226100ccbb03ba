package entity

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

// InvoiceStatus enumerates the invoice lifecycle.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "Draft"
	InvoiceSubmitted InvoiceStatus = "Submitted"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceRejected  InvoiceStatus = "Rejected"
)

// invoiceTransitions mirrors the order machine: forward only, Rejected
// reachable from any non-terminal status, Paid and Rejected terminal.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:     {InvoiceSubmitted, InvoicePaid, InvoiceRejected},
	InvoiceSubmitted: {InvoicePaid, InvoiceRejected},
	InvoicePaid:      {},
	InvoiceRejected:  {},
}

// ParseInvoiceStatus validates a status value received from a caller.
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	switch s := InvoiceStatus(raw); s {
	case InvoiceDraft, InvoiceSubmitted, InvoicePaid, InvoiceRejected:
		return s, nil
	default:
		return "", errorbank.Unprocessable("invalid invoice status", errorbank.WithDetail("status", raw))
	}
}

// CanTransition reports whether the lifecycle may move from s to next.
func (s InvoiceStatus) CanTransition(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s InvoiceStatus) Terminal() bool {
	return len(invoiceTransitions[s]) == 0
}

// FileMeta describes an uploaded invoice attachment.
type FileMeta struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Invoice is a billing record referencing an existing order.
type Invoice struct {
	bun.BaseModel `bun:"table:invoices"`

	ID         int64         `bun:",pk,autoincrement"`
	OrderID    int64         `bun:"order_id"`
	CustomerID string        `bun:"customer_id"`
	Number     string        `bun:"number"`
	File       FileMeta      `bun:"file"`
	Amount     float64       `bun:"amount"`
	Status     InvoiceStatus `bun:"status"`
	CreatedAt  time.Time     `bun:"created_at,nullzero"`
}

func (i *Invoice) RecordID() int64  { return i.ID }
func (i *Invoice) RecordKind() Kind { return KindInvoice }

// Validate checks create-time invariants. Whether OrderID resolves to an
// existing order is a store concern; only local shape is checked here.
func (i *Invoice) Validate() error {
	if i.OrderID <= 0 {
		return errorbank.Unprocessable("order id is required")
	}
	if i.Amount <= 0 {
		return errorbank.Unprocessable("amount must be positive")
	}
	if i.Status != "" {
		if _, err := ParseInvoiceStatus(string(i.Status)); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a copy; Invoice holds no reference fields beyond FileMeta,
// which is a value.
func (i *Invoice) Clone() Record {
	cp := *i
	return &cp
}
