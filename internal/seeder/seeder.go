package seeder

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/store"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder loads the sample dataset through a record store. Running it against
// the platform client seeds whichever mode the session resolved to.
type Seeder struct {
	store  store.Store
	logger *zap.Logger
}

// New constructs a Seeder over the given record store.
func New(st store.Store, logger *zap.Logger) *Seeder {
	return &Seeder{store: st, logger: logger}
}

// Run ensures the schema exists and inserts the sample records. A store that
// already holds orders is left untouched so repeated runs stay idempotent.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	existing, err := s.store.List(ctx, entity.KindOrder, store.Filter{})
	if err != nil {
		return fmt.Errorf("check existing orders: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("sample data already present, skipping seed", zap.Int("orders", len(existing)))
		return nil
	}

	orderIDs := make([]int64, 0, 3)
	for _, order := range SampleOrders() {
		created, err := s.store.Create(ctx, entity.KindOrder, order)
		if err != nil {
			return fmt.Errorf("seed order: %w", err)
		}
		orderIDs = append(orderIDs, created.RecordID())
	}

	for _, invoice := range SampleInvoices() {
		// Sample OrderID is a 1-based position into the sample orders.
		invoice.OrderID = orderIDs[invoice.OrderID-1]
		if _, err := s.store.Create(ctx, entity.KindInvoice, invoice); err != nil {
			return fmt.Errorf("seed invoice: %w", err)
		}
	}

	s.logger.Info("seeded sample data",
		zap.Int("orders", len(orderIDs)),
		zap.Int("invoices", len(SampleInvoices())))
	return nil
}
