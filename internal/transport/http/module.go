package http

import (
	"go.uber.org/fx"

	admintransport "github.com/lakedesk/lakedesk/internal/transport/http/admin"
	dashboardtransport "github.com/lakedesk/lakedesk/internal/transport/http/dashboard"
	invoicetransport "github.com/lakedesk/lakedesk/internal/transport/http/invoice"
	ordertransport "github.com/lakedesk/lakedesk/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	invoicetransport.Module,
	dashboardtransport.Module,
	admintransport.Module,
)
