package dashboard

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/lakedesk/lakedesk/internal/presentation/http/response"
	"github.com/lakedesk/lakedesk/internal/service/records"
)

var httpTracer = otel.Tracer("github.com/lakedesk/lakedesk/transport/http/dashboard")

// Handler serves the aggregated dashboard view.
type Handler struct {
	svc *records.Service
}

// NewHandler constructs a dashboard Handler.
func NewHandler(svc *records.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/dashboard/summary", h.summary)
}

func (h *Handler) summary(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "dashboard.summary")
	defer span.End()

	sum, err := h.svc.Summary(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(sum).WithMeta("mode", sum.Mode).Build()
}
