// Package memory implements the record store against process memory. It is
// the fallback backend for sessions without a reachable warehouse and the
// fixture store for tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/seeder"
	"github.com/lakedesk/lakedesk/internal/store"
	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

// Store holds records per kind with insertion order preserved. A fresh Store
// is empty; Seed loads the sample dataset at most once. All methods are safe
// for concurrent use.
type Store struct {
	mu      sync.RWMutex
	seeded  bool
	records map[entity.Kind]map[int64]entity.Record
	order   map[entity.Kind][]int64
	nextID  map[entity.Kind]int64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		records: map[entity.Kind]map[int64]entity.Record{
			entity.KindOrder:   {},
			entity.KindInvoice: {},
		},
		order:  map[entity.Kind][]int64{},
		nextID: map[entity.Kind]int64{},
	}
}

// Seed installs the deterministic sample dataset. The second and later calls
// are no-ops, even on a store that records were created in meanwhile.
func (s *Store) Seed(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seeded {
		return nil
	}
	s.seeded = true

	for _, order := range seeder.SampleOrders() {
		s.install(entity.KindOrder, order)
	}
	for _, invoice := range seeder.SampleInvoices() {
		// Sample invoices reference sample orders by position, which the
		// sequential ids reproduce exactly.
		s.install(entity.KindInvoice, invoice)
	}
	return nil
}

// install places a record under the next id for its kind. Callers hold mu.
func (s *Store) install(kind entity.Kind, rec entity.Record) {
	s.nextID[kind]++
	id := s.nextID[kind]
	switch r := rec.(type) {
	case *entity.Order:
		r.ID = id
	case *entity.Invoice:
		r.ID = id
	}
	s.records[kind][id] = rec
	s.order[kind] = append(s.order[kind], id)
}

// Seeded reports whether the sample dataset has been installed.
func (s *Store) Seeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seeded
}

// List returns matching records in insertion order.
func (s *Store) List(_ context.Context, kind entity.Kind, f store.Filter) ([]entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkKind(kind); err != nil {
		return nil, err
	}

	out := make([]entity.Record, 0, len(s.order[kind]))
	for _, id := range s.order[kind] {
		rec := s.records[kind][id]
		if matches(rec, f) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Get returns the record or a not-found error.
func (s *Store) Get(_ context.Context, kind entity.Kind, id int64) (entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkKind(kind); err != nil {
		return nil, err
	}
	rec, ok := s.records[kind][id]
	if !ok {
		return nil, notFound(kind, id)
	}
	return rec.Clone(), nil
}

// Create validates the record, assigns the next id for its kind, stamps
// missing timestamps and stores a copy. The stored record is returned.
func (s *Store) Create(_ context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkKind(kind); err != nil {
		return nil, err
	}
	if rec == nil || rec.RecordKind() != kind {
		return nil, errorbank.BadRequest("record does not match kind", errorbank.WithDetail("kind", string(kind)))
	}

	cp := rec.Clone()
	if err := store.NormalizeNew(cp, time.Now().UTC()); err != nil {
		return nil, err
	}
	if inv, ok := cp.(*entity.Invoice); ok {
		if _, ok := s.records[entity.KindOrder][inv.OrderID]; !ok {
			return nil, errorbank.Unprocessable("referenced order does not exist",
				errorbank.WithDetail("order_id", inv.OrderID))
		}
	}

	s.install(kind, cp)
	return cp.Clone(), nil
}

// Update applies the patch, enforcing status transition rules, and returns
// the stored record. An empty patch succeeds without changes.
func (s *Store) Update(_ context.Context, kind entity.Kind, id int64, p store.Patch) (entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkKind(kind); err != nil {
		return nil, err
	}
	rec, ok := s.records[kind][id]
	if !ok {
		return nil, notFound(kind, id)
	}
	if p.Empty() {
		return rec.Clone(), nil
	}

	updated := rec.Clone()
	if err := store.ApplyPatch(updated, p, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	s.records[kind][id] = updated
	return updated.Clone(), nil
}

// EnsureSchema is a no-op: memory needs no tables.
func (s *Store) EnsureSchema(context.Context) error { return nil }

func (s *Store) checkKind(kind entity.Kind) error {
	if _, ok := s.records[kind]; !ok {
		return errorbank.BadRequest("unknown record kind", errorbank.WithDetail("kind", string(kind)))
	}
	return nil
}

func notFound(kind entity.Kind, id int64) error {
	return errorbank.NotFound("record not found",
		errorbank.WithDetail("kind", string(kind)),
		errorbank.WithDetail("id", id))
}

// matches applies the filter to a record.
func matches(rec entity.Record, f store.Filter) bool {
	switch r := rec.(type) {
	case *entity.Order:
		if f.CustomerID != "" && r.CustomerID != f.CustomerID {
			return false
		}
		if f.Status != "" && string(r.Status) != f.Status {
			return false
		}
		return inCreatedRange(r.CreatedAt, f)
	case *entity.Invoice:
		if f.CustomerID != "" && r.CustomerID != f.CustomerID {
			return false
		}
		if f.Status != "" && string(r.Status) != f.Status {
			return false
		}
		if f.OrderID != 0 && r.OrderID != f.OrderID {
			return false
		}
		if f.Number != "" && !strings.Contains(r.Number, f.Number) {
			return false
		}
		return inCreatedRange(r.CreatedAt, f)
	default:
		return false
	}
}

func inCreatedRange(created time.Time, f store.Filter) bool {
	if !f.CreatedFrom.IsZero() && created.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && created.After(f.CreatedTo) {
		return false
	}
	return true
}
