package store

import (
	"time"

	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

// NormalizeNew validates a record about to be created and applies creation
// defaults in place: default status, derived order total, missing timestamps.
// Referential checks (an invoice's order id resolving) stay with the backend.
func NormalizeNew(rec entity.Record, now time.Time) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	switch r := rec.(type) {
	case *entity.Order:
		if r.Status == "" {
			r.Status = entity.OrderPending
		}
		r.Total = r.ItemsTotal()
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
	case *entity.Invoice:
		if r.Status == "" {
			r.Status = entity.InvoiceDraft
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
	}
	return nil
}

// ApplyPatch mutates rec according to the patch, enforcing transition rules
// and rejecting fields that do not apply to the record's kind. Order totals
// are recomputed when items change; UpdatedAt is bumped on any change.
func ApplyPatch(rec entity.Record, p Patch, now time.Time) error {
	switch r := rec.(type) {
	case *entity.Order:
		if p.Amount != nil || p.File != nil {
			return errorbank.Unprocessable("amount and file do not apply to orders")
		}
		changed := false
		if p.CustomerName != nil {
			r.CustomerName = *p.CustomerName
			changed = true
		}
		if p.Items != nil {
			r.Items = append([]entity.LineItem(nil), p.Items...)
			r.Total = r.ItemsTotal()
			changed = true
		}
		if p.Status != nil {
			next, err := entity.ParseOrderStatus(*p.Status)
			if err != nil {
				return err
			}
			if next != r.Status {
				if !r.Status.CanTransition(next) {
					return illegalTransition(string(r.Status), string(next))
				}
				r.Status = next
				changed = true
			}
		}
		if changed {
			r.UpdatedAt = now
		}
		return nil

	case *entity.Invoice:
		if p.Items != nil || p.CustomerName != nil {
			return errorbank.Unprocessable("items and customer name do not apply to invoices")
		}
		if p.Amount != nil {
			r.Amount = *p.Amount
		}
		if p.File != nil {
			r.File = *p.File
		}
		if p.Status != nil {
			next, err := entity.ParseInvoiceStatus(*p.Status)
			if err != nil {
				return err
			}
			if next != r.Status {
				if !r.Status.CanTransition(next) {
					return illegalTransition(string(r.Status), string(next))
				}
				r.Status = next
			}
		}
		return nil

	default:
		return errorbank.Internal("unsupported record type")
	}
}

func illegalTransition(from, to string) error {
	return errorbank.Unprocessable("illegal status transition",
		errorbank.WithDetail("from", from),
		errorbank.WithDetail("to", to))
}
