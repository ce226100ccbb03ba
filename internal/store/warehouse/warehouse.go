// Package warehouse implements the record store against the platform's SQL
// endpoint through bun. It is only ever reached by sessions that resolved to
// live mode.
package warehouse

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/store"
	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

var tracer = otel.Tracer("github.com/lakedesk/lakedesk/internal/store/warehouse")

// Store executes record operations against warehouse tables.
type Store struct {
	db *bun.DB
}

// New wraps an open bun handle.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for seeding and migrations.
func (s *Store) DB() *bun.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the record tables when missing. It is additive only
// and safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Warehouse.EnsureSchema")
	defer span.End()

	for _, model := range []any{(*entity.Order)(nil), (*entity.Invoice)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fail(span, "create table", err)
		}
	}
	return nil
}

// List returns matching records ordered by id.
func (s *Store) List(ctx context.Context, kind entity.Kind, f store.Filter) ([]entity.Record, error) {
	ctx, span := tracer.Start(ctx, "Warehouse.List",
		trace.WithAttributes(attribute.String("record.kind", string(kind))))
	defer span.End()

	switch kind {
	case entity.KindOrder:
		var orders []*entity.Order
		q := s.db.NewSelect().Model(&orders).Order("id ASC")
		applyCommonFilter(q, f)
		if err := q.Scan(ctx); err != nil {
			return nil, fail(span, "select orders", err)
		}
		out := make([]entity.Record, len(orders))
		for i, o := range orders {
			out[i] = o
		}
		return out, nil

	case entity.KindInvoice:
		var invoices []*entity.Invoice
		q := s.db.NewSelect().Model(&invoices).Order("id ASC")
		applyCommonFilter(q, f)
		if f.OrderID != 0 {
			q.Where("order_id = ?", f.OrderID)
		}
		if f.Number != "" {
			q.Where("number LIKE ?", "%"+f.Number+"%")
		}
		if err := q.Scan(ctx); err != nil {
			return nil, fail(span, "select invoices", err)
		}
		out := make([]entity.Record, len(invoices))
		for i, inv := range invoices {
			out[i] = inv
		}
		return out, nil

	default:
		return nil, badKind(kind)
	}
}

// Get fetches a record by primary key.
func (s *Store) Get(ctx context.Context, kind entity.Kind, id int64) (entity.Record, error) {
	ctx, span := tracer.Start(ctx, "Warehouse.Get",
		trace.WithAttributes(attribute.String("record.kind", string(kind)), attribute.Int64("record.id", id)))
	defer span.End()

	rec, err := s.newByKind(kind)
	if err != nil {
		return nil, err
	}
	if err := s.db.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, fail(span, "select record", err)
	}
	return rec, nil
}

// Create validates and inserts the record; the database assigns the id.
func (s *Store) Create(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error) {
	ctx, span := tracer.Start(ctx, "Warehouse.Create",
		trace.WithAttributes(attribute.String("record.kind", string(kind))))
	defer span.End()

	if rec == nil || rec.RecordKind() != kind {
		return nil, errorbank.BadRequest("record does not match kind", errorbank.WithDetail("kind", string(kind)))
	}

	cp := rec.Clone()
	if err := store.NormalizeNew(cp, time.Now().UTC()); err != nil {
		return nil, err
	}

	if inv, ok := cp.(*entity.Invoice); ok {
		exists, err := s.db.NewSelect().
			Model((*entity.Order)(nil)).
			Where("id = ?", inv.OrderID).
			Exists(ctx)
		if err != nil {
			return nil, fail(span, "check referenced order", err)
		}
		if !exists {
			return nil, errorbank.Unprocessable("referenced order does not exist",
				errorbank.WithDetail("order_id", inv.OrderID))
		}
	}

	if _, err := s.db.NewInsert().Model(cp).Exec(ctx); err != nil {
		return nil, fail(span, "insert record", err)
	}
	return cp, nil
}

// Update loads the record, applies the patch under the shared rules and
// writes the full row back.
func (s *Store) Update(ctx context.Context, kind entity.Kind, id int64, p store.Patch) (entity.Record, error) {
	ctx, span := tracer.Start(ctx, "Warehouse.Update",
		trace.WithAttributes(attribute.String("record.kind", string(kind)), attribute.Int64("record.id", id)))
	defer span.End()

	rec, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if p.Empty() {
		return rec, nil
	}

	if err := store.ApplyPatch(rec, p, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	res, err := s.db.NewUpdate().Model(rec).WherePK().Exec(ctx)
	if err != nil {
		return nil, fail(span, "update record", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, errorbank.NotFound("record not found", errorbank.WithDetail("id", id))
	}
	return rec, nil
}

func (s *Store) newByKind(kind entity.Kind) (entity.Record, error) {
	switch kind {
	case entity.KindOrder:
		return new(entity.Order), nil
	case entity.KindInvoice:
		return new(entity.Invoice), nil
	default:
		return nil, badKind(kind)
	}
}

func applyCommonFilter(q *bun.SelectQuery, f store.Filter) {
	if f.CustomerID != "" {
		q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q.Where("status = ?", f.Status)
	}
	if !f.CreatedFrom.IsZero() {
		q.Where("created_at >= ?", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		q.Where("created_at <= ?", f.CreatedTo)
	}
}

func badKind(kind entity.Kind) error {
	return errorbank.BadRequest("unknown record kind", errorbank.WithDetail("kind", string(kind)))
}

func fail(span trace.Span, op string, err error) error {
	classified := classify(op, err)
	span.RecordError(classified)
	span.SetStatus(codes.Error, op+" failed")
	return classified
}
