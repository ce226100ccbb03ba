// Package records holds the business logic layered on top of the record
// backend: read caching, lifecycle events, archiving and aggregation.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/archive"
	"github.com/lakedesk/lakedesk/internal/cache"
	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/messaging"
	"github.com/lakedesk/lakedesk/internal/platform"
	"github.com/lakedesk/lakedesk/internal/seeder"
	"github.com/lakedesk/lakedesk/internal/store"
	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/lakedesk/lakedesk/service/records")

// Backend is the record client the service drives: the full record store
// contract plus the session mode surface.
type Backend interface {
	store.Store
	Mode() platform.Mode
}

// Service encapsulates business logic around orders and invoices.
type Service struct {
	backend   Backend
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	archive   *archive.Writer
	messaging messagingConfig

	modeMu   sync.Mutex
	lastMode platform.Mode
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Backend   Backend
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
	Archive   *archive.Writer
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		backend:   p.Backend,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		archive:   p.Archive,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		lastMode: p.Backend.Mode(),
	}
}

// Mode reports the backend session mode.
func (s *Service) Mode() platform.Mode {
	return s.backend.Mode()
}

// ListOrders returns orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, f store.Filter) ([]*entity.Order, error) {
	recs, err := s.list(ctx, entity.KindOrder, f)
	if err != nil {
		return nil, err
	}
	orders := make([]*entity.Order, 0, len(recs))
	for _, rec := range recs {
		if order, ok := rec.(*entity.Order); ok {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// GetOrder retrieves an order by id, consulting cache when available.
func (s *Service) GetOrder(ctx context.Context, id int64) (*entity.Order, error) {
	rec, err := s.get(ctx, entity.KindOrder, id)
	if err != nil {
		return nil, err
	}
	order, ok := rec.(*entity.Order)
	if !ok {
		return nil, errorbank.Internal("unexpected record type for order")
	}
	return order, nil
}

// CreateOrder persists a new order and refreshes cache state.
func (s *Service) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	if order == nil {
		return nil, errorbank.BadRequest("order payload is required")
	}
	rec, err := s.create(ctx, entity.KindOrder, order)
	if err != nil {
		return nil, err
	}
	return rec.(*entity.Order), nil
}

// UpdateOrder applies a patch to an existing order.
func (s *Service) UpdateOrder(ctx context.Context, id int64, p store.Patch) (*entity.Order, error) {
	rec, err := s.update(ctx, entity.KindOrder, id, p)
	if err != nil {
		return nil, err
	}
	return rec.(*entity.Order), nil
}

// ListInvoices returns invoices matching the filter.
func (s *Service) ListInvoices(ctx context.Context, f store.Filter) ([]*entity.Invoice, error) {
	recs, err := s.list(ctx, entity.KindInvoice, f)
	if err != nil {
		return nil, err
	}
	invoices := make([]*entity.Invoice, 0, len(recs))
	for _, rec := range recs {
		if invoice, ok := rec.(*entity.Invoice); ok {
			invoices = append(invoices, invoice)
		}
	}
	return invoices, nil
}

// GetInvoice retrieves an invoice by id, consulting cache when available.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	rec, err := s.get(ctx, entity.KindInvoice, id)
	if err != nil {
		return nil, err
	}
	invoice, ok := rec.(*entity.Invoice)
	if !ok {
		return nil, errorbank.Internal("unexpected record type for invoice")
	}
	return invoice, nil
}

// CreateInvoice persists a new invoice and appends it to the local archive.
func (s *Service) CreateInvoice(ctx context.Context, invoice *entity.Invoice) (*entity.Invoice, error) {
	if invoice == nil {
		return nil, errorbank.BadRequest("invoice payload is required")
	}
	rec, err := s.create(ctx, entity.KindInvoice, invoice)
	if err != nil {
		return nil, err
	}
	created := rec.(*entity.Invoice)

	if s.archive != nil {
		if err := s.archive.Append(ctx, created); err != nil && s.logger != nil {
			s.logger.Warn("invoice archive write failed", zap.Int64("id", created.ID), zap.Error(err))
		}
	}
	return created, nil
}

// UpdateInvoice applies a patch to an existing invoice.
func (s *Service) UpdateInvoice(ctx context.Context, id int64, p store.Patch) (*entity.Invoice, error) {
	rec, err := s.update(ctx, entity.KindInvoice, id, p)
	if err != nil {
		return nil, err
	}
	return rec.(*entity.Invoice), nil
}

// EnsureSchema makes sure the backend tables exist.
func (s *Service) EnsureSchema(ctx context.Context) error {
	ctx, span := serviceTracer.Start(ctx, "RecordService.EnsureSchema")
	defer span.End()

	err := s.backend.EnsureSchema(ctx)
	s.observeMode(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend error")
		return errorbank.From(err)
	}
	return nil
}

// Seed loads the sample data set through the backend. Seeding is skipped
// when orders already exist.
func (s *Service) Seed(ctx context.Context) error {
	ctx, span := serviceTracer.Start(ctx, "RecordService.Seed")
	defer span.End()

	err := seeder.New(s.backend, s.logger).Run(ctx)
	s.observeMode(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seed failed")
		return errorbank.From(err)
	}
	return nil
}

func (s *Service) list(ctx context.Context, kind entity.Kind, f store.Filter) ([]entity.Record, error) {
	ctx, span := serviceTracer.Start(ctx, "RecordService.List",
		trace.WithAttributes(attribute.String("record.kind", string(kind))))
	defer span.End()

	recs, err := s.backend.List(ctx, kind, f)
	s.observeMode(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend error")
		return nil, errorbank.From(err)
	}
	span.SetAttributes(attribute.Int("record.count", len(recs)))
	return recs, nil
}

func (s *Service) get(ctx context.Context, kind entity.Kind, id int64) (entity.Record, error) {
	ctx, span := serviceTracer.Start(ctx, "RecordService.Get",
		trace.WithAttributes(attribute.String("record.kind", string(kind)), attribute.Int64("record.id", id)))
	defer span.End()

	if rec, err := s.getFromCache(ctx, kind, id); err == nil {
		return rec, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		if s.logger != nil {
			s.logger.Warn("records cache read failed", zap.String("kind", string(kind)), zap.Int64("id", id), zap.Error(err))
		}
	}

	rec, err := s.backend.Get(ctx, kind, id)
	s.observeMode(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend error")
		return nil, errorbank.From(err)
	}

	if err := s.storeInCache(ctx, rec); err != nil && s.logger != nil {
		s.logger.Warn("records cache write failed", zap.String("kind", string(kind)), zap.Int64("id", id), zap.Error(err))
	}
	return rec, nil
}

func (s *Service) create(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error) {
	ctx, span := serviceTracer.Start(ctx, "RecordService.Create",
		trace.WithAttributes(attribute.String("record.kind", string(kind))))
	defer span.End()

	created, err := s.backend.Create(ctx, kind, rec)
	s.observeMode(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend error")
		return nil, errorbank.From(err)
	}

	if err := s.storeInCache(ctx, created); err != nil && s.logger != nil {
		s.logger.Warn("records cache write failed", zap.Int64("id", created.RecordID()), zap.Error(err))
	}

	s.publishEvent(ctx, Event{
		Type:   createdEventType(kind),
		Kind:   string(kind),
		ID:     created.RecordID(),
		Status: statusOf(created),
		At:     createdAtOf(created),
	})
	return created, nil
}

func (s *Service) update(ctx context.Context, kind entity.Kind, id int64, p store.Patch) (entity.Record, error) {
	ctx, span := serviceTracer.Start(ctx, "RecordService.Update",
		trace.WithAttributes(attribute.String("record.kind", string(kind)), attribute.Int64("record.id", id)))
	defer span.End()

	updated, err := s.backend.Update(ctx, kind, id, p)
	s.observeMode(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend error")
		return nil, errorbank.From(err)
	}

	if err := s.storeInCache(ctx, updated); err != nil && s.logger != nil {
		s.logger.Warn("records cache write failed", zap.Int64("id", id), zap.Error(err))
	}

	s.publishEvent(ctx, Event{
		Type:   EventRecordUpdated,
		Kind:   string(kind),
		ID:     id,
		Status: statusOf(updated),
		At:     time.Now().UTC(),
	})
	return updated, nil
}

func (s *Service) cacheKey(kind entity.Kind, id int64) string {
	return fmt.Sprintf("records:%s:%d", kind, id)
}

func (s *Service) getFromCache(ctx context.Context, kind entity.Kind, id int64) (entity.Record, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(kind, id))
	if err != nil {
		return nil, err
	}
	switch kind {
	case entity.KindOrder:
		var order entity.Order
		if err := json.Unmarshal(raw, &order); err != nil {
			return nil, err
		}
		return &order, nil
	case entity.KindInvoice:
		var invoice entity.Invoice
		if err := json.Unmarshal(raw, &invoice); err != nil {
			return nil, err
		}
		return &invoice, nil
	}
	return nil, cache.ErrCacheMiss
}

func (s *Service) storeInCache(ctx context.Context, rec entity.Record) error {
	if s.cache == nil || rec == nil {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(rec.RecordKind(), rec.RecordID()), raw, s.cacheTTL)
}

func statusOf(rec entity.Record) string {
	switch r := rec.(type) {
	case *entity.Order:
		return string(r.Status)
	case *entity.Invoice:
		return string(r.Status)
	}
	return ""
}

func createdAtOf(rec entity.Record) time.Time {
	switch r := rec.(type) {
	case *entity.Order:
		return r.CreatedAt
	case *entity.Invoice:
		return r.CreatedAt
	}
	return time.Time{}
}
