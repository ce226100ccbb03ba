package order

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lakedesk/lakedesk/internal/dto"
	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/presentation/http/response"
	"github.com/lakedesk/lakedesk/internal/service/records"
	"github.com/lakedesk/lakedesk/internal/store"
	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/lakedesk/lakedesk/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *records.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *records.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	f, err := filterFromQuery(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.ListOrders(ctx, f)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int("order.count", len(orders)))

	return b.WithData(dto.FromOrders(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.GetOrder(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := dto.Validate(req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create",
		trace.WithAttributes(attribute.String("order.customer_id", req.CustomerID)))
	defer span.End()

	order, err := h.svc.CreateOrder(ctx, req.ToEntity())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var req dto.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := dto.Validate(req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.UpdateOrder(ctx, id, req.ToPatch())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func filterFromQuery(c echo.Context) (store.Filter, error) {
	f := store.Filter{
		CustomerID: c.QueryParam("customer_id"),
	}
	if raw := c.QueryParam("status"); raw != "" {
		status, err := entity.ParseOrderStatus(raw)
		if err != nil {
			return store.Filter{}, err
		}
		f.Status = string(status)
	}
	if raw := c.QueryParam("created_from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.Filter{}, errorbank.BadRequest("invalid created_from", errorbank.WithCause(err))
		}
		f.CreatedFrom = ts
	}
	if raw := c.QueryParam("created_to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.Filter{}, errorbank.BadRequest("invalid created_to", errorbank.WithCause(err))
		}
		f.CreatedTo = ts
	}
	return f, nil
}
