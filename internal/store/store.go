// Package store defines the record-access contract shared by every backend:
// the in-memory mock, the live warehouse, and the adaptive platform client
// that fronts them.
package store

import (
	"context"
	"time"

	"github.com/lakedesk/lakedesk/internal/entity"
)

// Store is the record-access contract. Implementations return not-found and
// unprocessable-entity errors from pkg/errorbank; only live backends may
// additionally surface the unavailable kind.
type Store interface {
	List(ctx context.Context, kind entity.Kind, f Filter) ([]entity.Record, error)
	Get(ctx context.Context, kind entity.Kind, id int64) (entity.Record, error)
	Create(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error)
	Update(ctx context.Context, kind entity.Kind, id int64, p Patch) (entity.Record, error)
	EnsureSchema(ctx context.Context) error
}

// Filter narrows List results. Zero values mean "not filtered"; an all-zero
// filter returns every record of the kind in insertion order.
type Filter struct {
	CustomerID string
	Status     string
	// OrderID and Number only apply to invoices.
	OrderID     int64
	Number      string
	CreatedFrom time.Time
	CreatedTo   time.Time
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool {
	return f.CustomerID == "" && f.Status == "" && f.OrderID == 0 && f.Number == "" &&
		f.CreatedFrom.IsZero() && f.CreatedTo.IsZero()
}

// Patch carries the mutable record fields; nil fields stay untouched.
// Status applies to both kinds, Items and CustomerName to orders, Amount and
// File to invoices.
type Patch struct {
	Status       *string
	CustomerName *string
	Items        []entity.LineItem
	Amount       *float64
	File         *entity.FileMeta
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.CustomerName == nil && p.Items == nil &&
		p.Amount == nil && p.File == nil
}
