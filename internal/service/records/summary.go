package records

import (
	"context"

	"github.com/lakedesk/lakedesk/internal/store"
)

// Summary aggregates the record set for the dashboard view.
type Summary struct {
	Mode              string             `json:"mode"`
	TotalOrders       int                `json:"total_orders"`
	TotalInvoices     int                `json:"total_invoices"`
	TotalRevenue      float64            `json:"total_revenue"`
	AverageOrderValue float64            `json:"average_order_value"`
	RevenueByStatus   map[string]float64 `json:"revenue_by_status"`
}

// Summary computes order and invoice aggregates across the whole record set.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	ctx, span := serviceTracer.Start(ctx, "RecordService.Summary")
	defer span.End()

	orders, err := s.ListOrders(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}
	invoices, err := s.ListInvoices(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Mode:            string(s.backend.Mode()),
		TotalOrders:     len(orders),
		TotalInvoices:   len(invoices),
		RevenueByStatus: make(map[string]float64),
	}
	for _, order := range orders {
		sum.TotalRevenue += order.Total
		sum.RevenueByStatus[string(order.Status)] += order.Total
	}
	if len(orders) > 0 {
		sum.AverageOrderValue = sum.TotalRevenue / float64(len(orders))
	}
	return sum, nil
}
