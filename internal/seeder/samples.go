package seeder

import (
	"time"

	"github.com/lakedesk/lakedesk/internal/entity"
)

// Sample timestamps are fixed so seeded content is identical across runs and
// safe to assert on in tests.
var (
	sampleDay1 = time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC)
	sampleDay2 = time.Date(2024, time.January, 6, 10, 0, 0, 0, time.UTC)
	sampleDay3 = time.Date(2024, time.January, 7, 10, 0, 0, 0, time.UTC)
	sampleDay4 = time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)
	sampleDay5 = time.Date(2024, time.January, 9, 10, 0, 0, 0, time.UTC)
)

// SampleOrders returns fresh copies of the deterministic sample orders.
// IDs are unset; the receiving store assigns them in slice order.
func SampleOrders() []*entity.Order {
	return []*entity.Order{
		{
			CustomerID:   "CUST-001",
			CustomerName: "John Doe",
			Items: []entity.LineItem{
				{SKU: "Laptop", Quantity: 1, UnitPrice: 120.00},
				{SKU: "Mouse", Quantity: 1, UnitPrice: 30.00},
			},
			Total:     150.00,
			Status:    entity.OrderCompleted,
			CreatedAt: sampleDay1,
			UpdatedAt: sampleDay1,
		},
		{
			CustomerID:   "CUST-002",
			CustomerName: "Jane Smith",
			Items: []entity.LineItem{
				{SKU: "Keyboard", Quantity: 1, UnitPrice: 75.50},
			},
			Total:     75.50,
			Status:    entity.OrderPending,
			CreatedAt: sampleDay3,
			UpdatedAt: sampleDay3,
		},
		{
			CustomerID:   "CUST-001",
			CustomerName: "John Doe",
			Items: []entity.LineItem{
				{SKU: "Monitor", Quantity: 1, UnitPrice: 200.00},
			},
			Total:     200.00,
			Status:    entity.OrderCompleted,
			CreatedAt: sampleDay5,
			UpdatedAt: sampleDay5,
		},
	}
}

// SampleInvoices returns fresh copies of the deterministic sample invoices.
// OrderID is the 1-based position of the referenced sample order; stores that
// assign non-sequential ids must remap it to the created order's id.
func SampleInvoices() []*entity.Invoice {
	return []*entity.Invoice{
		{
			OrderID:    1,
			CustomerID: "CUST-001",
			Number:     "INV-0001",
			Amount:     150.00,
			Status:     entity.InvoicePaid,
			CreatedAt:  sampleDay2,
		},
		{
			OrderID:    2,
			CustomerID: "CUST-002",
			Number:     "INV-0002",
			Amount:     75.50,
			Status:     entity.InvoiceDraft,
			CreatedAt:  sampleDay4,
		},
	}
}
