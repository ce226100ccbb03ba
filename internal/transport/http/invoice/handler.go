package invoice

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lakedesk/lakedesk/internal/blob"
	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/dto"
	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/presentation/http/response"
	"github.com/lakedesk/lakedesk/internal/service/records"
	"github.com/lakedesk/lakedesk/internal/store"
	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/lakedesk/lakedesk/transport/http/invoice")

// Handler exposes invoice endpoints over HTTP.
type Handler struct {
	svc      *records.Service
	blobs    blob.Store
	maxBytes int64
}

// NewHandler constructs an invoice Handler.
func NewHandler(svc *records.Service, blobs blob.Store, cfg config.Config) *Handler {
	return &Handler{svc: svc, blobs: blobs, maxBytes: cfg.Upload.MaxBytes}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/invoices")
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

	ctx, span := httpTracer.Start(c.Request().Context(), "invoices.list")
	defer span.End()

	invoices, err := h.svc.ListInvoices(ctx, f)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int("invoice.count", len(invoices)))

	return b.WithData(dto.FromInvoices(invoices)).WithMeta("count", len(invoices)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "invoices.getByID", trace.WithAttributes(attribute.Int64("invoice.id", id)))
	defer span.End()

	invoice, err := h.svc.GetInvoice(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromInvoice(invoice)).Build()
}

// create accepts either a JSON body or a multipart form with an optional
// document part named "file".
func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := dto.Validate(req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "invoices.create",
		trace.WithAttributes(attribute.Int64("invoice.order_id", req.OrderID), attribute.String("invoice.number", req.Number)))
	defer span.End()

	invoice := req.ToEntity()

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			return b.WithError(errorbank.BadRequest("invalid upload", errorbank.WithCause(err))).Build()
		}
		if fh != nil {
			if h.maxBytes > 0 && fh.Size > h.maxBytes {
				return b.WithError(errorbank.Unprocessable("file exceeds upload limit",
					errorbank.WithDetail("max_bytes", h.maxBytes))).Build()
			}
			src, err := fh.Open()
			if err != nil {
				return b.WithError(errorbank.Internal("failed to open upload", errorbank.WithCause(err))).Build()
			}
			defer src.Close()

			meta, err := h.blobs.Save(ctx, fh.Filename, src)
			if err != nil {
				return b.WithError(errorbank.Internal("failed to store upload", errorbank.WithCause(err))).Build()
			}
			invoice.File = meta
			span.SetAttributes(attribute.String("invoice.file", meta.Name))
		}
	}

	created, err := h.svc.CreateInvoice(ctx, invoice)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.FromInvoice(created)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var req dto.UpdateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := dto.Validate(req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "invoices.update", trace.WithAttributes(attribute.Int64("invoice.id", id)))
	defer span.End()

	invoice, err := h.svc.UpdateInvoice(ctx, id, req.ToPatch())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromInvoice(invoice)).Build()
}

func filterFromQuery(c echo.Context) (store.Filter, error) {
	f := store.Filter{
		CustomerID: c.QueryParam("customer_id"),
		Number:     c.QueryParam("number"),
	}
	if raw := c.QueryParam("status"); raw != "" {
		status, err := entity.ParseInvoiceStatus(raw)
		if err != nil {
			return store.Filter{}, err
		}
		f.Status = string(status)
	}
	if raw := c.QueryParam("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return store.Filter{}, errorbank.BadRequest("invalid order_id", errorbank.WithCause(err))
		}
		f.OrderID = id
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
