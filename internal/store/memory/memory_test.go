package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/store"
	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

func strptr(s string) *string { return &s }

func newOrder() *entity.Order {
	return &entity.Order{
		CustomerID:   "CUST-A",
		CustomerName: "Ada Lovelace",
		Items:        []entity.LineItem{{SKU: "x", Quantity: 2, UnitPrice: 5}},
	}
}

func TestCreateAssignsFirstID(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)

	order := created.(*entity.Order)
	assert.Equal(t, int64(1), order.ID)
	assert.InDelta(t, 10.0, order.Total, 1e-9)
	assert.Equal(t, entity.OrderPending, order.Status)
	assert.WithinDuration(t, time.Now().UTC(), order.CreatedAt, time.Minute)
	assert.Equal(t, order.CreatedAt, order.UpdatedAt)
}

func TestCreateGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)

	got, err := s.Get(ctx, entity.KindOrder, created.RecordID())
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateRecomputesTotal(t *testing.T) {
	ctx := context.Background()
	s := New()

	order := newOrder()
	order.Total = 999 // caller-supplied totals are never trusted

	created, err := s.Create(ctx, entity.KindOrder, order)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, created.(*entity.Order).Total, 1e-9)
}

func TestCreateIDsAreMonotonicPerKind(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)
	second, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)
	invoice, err := s.Create(ctx, entity.KindInvoice, &entity.Invoice{OrderID: 1, CustomerID: "CUST-A", Amount: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.RecordID())
	assert.Equal(t, int64(2), second.RecordID())
	assert.Equal(t, int64(1), invoice.RecordID())
}

func TestCreateInvoiceRequiresExistingOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Create(ctx, entity.KindInvoice, &entity.Invoice{OrderID: 42, CustomerID: "CUST-A", Amount: 10})
	require.Error(t, err)
	assert.True(t, errorbank.IsValidation(err))
	assert.ErrorContains(t, err, "referenced order does not exist")
}

func TestCreateInvoiceDefaultsToDraft(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)

	created, err := s.Create(ctx, entity.KindInvoice, &entity.Invoice{OrderID: 1, CustomerID: "CUST-A", Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceDraft, created.(*entity.Invoice).Status)
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	ctx := context.Background()
	s := New()

	order := newOrder()
	order.Items = nil
	_, err := s.Create(ctx, entity.KindOrder, order)
	assert.True(t, errorbank.IsValidation(err))
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, entity.KindOrder, 99)
	assert.True(t, errorbank.IsNotFound(err))
}

func TestUnknownKind(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.List(ctx, entity.Kind("payments"), store.Filter{})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestUpdateStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)
	id := created.RecordID()

	// Pending -> Shipped moves forward.
	updated, err := s.Update(ctx, entity.KindOrder, id, store.Patch{Status: strptr("Shipped")})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderShipped, updated.(*entity.Order).Status)

	// Shipped -> Pending moves backward and is rejected.
	_, err = s.Update(ctx, entity.KindOrder, id, store.Patch{Status: strptr("Pending")})
	require.Error(t, err)
	assert.True(t, errorbank.IsValidation(err))
	assert.ErrorContains(t, err, "illegal status transition")

	// The stored record is unchanged by the failed update.
	got, err := s.Get(ctx, entity.KindOrder, id)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderShipped, got.(*entity.Order).Status)
}

func TestUpdatePendingToCancelled(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)

	updated, err := s.Update(ctx, entity.KindOrder, created.RecordID(), store.Patch{Status: strptr("Cancelled")})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, updated.(*entity.Order).Status)
}

func TestUpdateCompletedRejectsAnyTransition(t *testing.T) {
	ctx := context.Background()
	s := New()

	order := newOrder()
	order.Status = entity.OrderCompleted
	created, err := s.Create(ctx, entity.KindOrder, order)
	require.NoError(t, err)

	for _, next := range []string{"Pending", "Processing", "Shipped", "Cancelled"} {
		_, err := s.Update(ctx, entity.KindOrder, created.RecordID(), store.Patch{Status: strptr(next)})
		assert.True(t, errorbank.IsValidation(err), "transition to %s", next)
	}
}

func TestUpdateSameStatusIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)
	before := created.(*entity.Order).UpdatedAt

	updated, err := s.Update(ctx, entity.KindOrder, created.RecordID(), store.Patch{Status: strptr("Pending")})
	require.NoError(t, err)
	assert.Equal(t, before, updated.(*entity.Order).UpdatedAt)
}

func TestUpdateItemsRecomputesTotal(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)

	items := []entity.LineItem{
		{SKU: "x", Quantity: 3, UnitPrice: 5},
		{SKU: "y", Quantity: 1, UnitPrice: 2.5},
	}
	updated, err := s.Update(ctx, entity.KindOrder, created.RecordID(), store.Patch{Items: items})
	require.NoError(t, err)

	order := updated.(*entity.Order)
	assert.InDelta(t, 17.5, order.Total, 1e-9)
	assert.True(t, order.UpdatedAt.After(order.CreatedAt) || order.UpdatedAt.Equal(order.CreatedAt))
}

func TestUpdateRejectsInvalidItems(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)

	_, err = s.Update(ctx, entity.KindOrder, created.RecordID(),
		store.Patch{Items: []entity.LineItem{{SKU: "", Quantity: 1, UnitPrice: 1}}})
	assert.True(t, errorbank.IsValidation(err))
}

func TestUpdateEmptyPatchIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)

	updated, err := s.Update(ctx, entity.KindOrder, created.RecordID(), store.Patch{})
	require.NoError(t, err)
	assert.Equal(t, created, updated)
}

func TestUpdateNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Update(ctx, entity.KindOrder, 7, store.Patch{Status: strptr("Shipped")})
	assert.True(t, errorbank.IsNotFound(err))
}

func TestUpdateRejectsForeignFields(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)

	amount := 12.5
	_, err = s.Update(ctx, entity.KindOrder, created.RecordID(), store.Patch{Amount: &amount})
	assert.True(t, errorbank.IsValidation(err))
}

func TestUpdateInvoice(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Seed(ctx))

	updated, err := s.Update(ctx, entity.KindInvoice, 2, store.Patch{Status: strptr("Submitted")})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceSubmitted, updated.(*entity.Invoice).Status)

	// Paid invoices are terminal.
	_, err = s.Update(ctx, entity.KindInvoice, 1, store.Patch{Status: strptr("Rejected")})
	assert.True(t, errorbank.IsValidation(err))
}

func TestSeedIsDeterministicAndIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Seed(ctx))
	require.NoError(t, s.Seed(ctx))

	orders, err := s.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	require.Len(t, orders, 3)

	invoices, err := s.List(ctx, entity.KindInvoice, store.Filter{})
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	first := orders[0].(*entity.Order)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "CUST-001", first.CustomerID)
	assert.Equal(t, "John Doe", first.CustomerName)
	assert.InDelta(t, 150.00, first.Total, 1e-9)
	assert.Equal(t, entity.OrderCompleted, first.Status)
	assert.Equal(t, time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC), first.CreatedAt)

	second := orders[1].(*entity.Order)
	assert.Equal(t, "Jane Smith", second.CustomerName)
	assert.Equal(t, entity.OrderPending, second.Status)
	assert.InDelta(t, 75.50, second.Total, 1e-9)

	inv := invoices[0].(*entity.Invoice)
	assert.Equal(t, int64(1), inv.OrderID)
	assert.Equal(t, "INV-0001", inv.Number)
	assert.Equal(t, entity.InvoicePaid, inv.Status)
}

func TestSeedTotalsMatchItems(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Seed(ctx))

	orders, err := s.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	for _, rec := range orders {
		order := rec.(*entity.Order)
		assert.InDelta(t, order.ItemsTotal(), order.Total, 1e-9, "order %d", order.ID)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Seed(ctx))

	tests := []struct {
		name   string
		kind   entity.Kind
		filter store.Filter
		want   int
	}{
		{name: "all orders", kind: entity.KindOrder, filter: store.Filter{}, want: 3},
		{name: "orders by customer", kind: entity.KindOrder, filter: store.Filter{CustomerID: "CUST-001"}, want: 2},
		{name: "orders by status", kind: entity.KindOrder, filter: store.Filter{Status: "Completed"}, want: 2},
		{name: "orders by customer and status", kind: entity.KindOrder, filter: store.Filter{CustomerID: "CUST-002", Status: "Completed"}, want: 0},
		{name: "orders created from", kind: entity.KindOrder, filter: store.Filter{CreatedFrom: time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)}, want: 2},
		{name: "orders created to", kind: entity.KindOrder, filter: store.Filter{CreatedTo: time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC)}, want: 1},
		{name: "invoices by order", kind: entity.KindInvoice, filter: store.Filter{OrderID: 1}, want: 1},
		{name: "invoices by number fragment", kind: entity.KindInvoice, filter: store.Filter{Number: "0002"}, want: 1},
		{name: "invoices by status", kind: entity.KindInvoice, filter: store.Filter{Status: "Paid"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.kind, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 5; i++ {
		_, err := s.Create(ctx, entity.KindOrder, newOrder())
		require.NoError(t, err)
	}

	orders, err := s.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	for i, rec := range orders {
		assert.Equal(t, int64(i+1), rec.RecordID())
	}
}

func TestReturnedRecordsDoNotAliasStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)

	created.(*entity.Order).Items[0].Quantity = 99
	created.(*entity.Order).Status = entity.OrderCancelled

	got, err := s.Get(ctx, entity.KindOrder, created.RecordID())
	require.NoError(t, err)
	assert.Equal(t, 2, got.(*entity.Order).Items[0].Quantity)
	assert.Equal(t, entity.OrderPending, got.(*entity.Order).Status)
}

func TestEnsureSchemaIsNoOp(t *testing.T) {
	s := New()
	assert.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, s.EnsureSchema(context.Background()))
}
