package admin

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/presentation/http/response"
	"github.com/lakedesk/lakedesk/internal/service/records"
)

var httpTracer = otel.Tracer("github.com/lakedesk/lakedesk/transport/http/admin")

// Handler exposes operational endpoints: backend status, schema setup and
// sample data seeding. Credentials are never echoed back.
type Handler struct {
	svc *records.Service
	cfg config.Config
}

// NewHandler constructs an admin Handler.
func NewHandler(svc *records.Service, cfg config.Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/admin")
	g.GET("/status", h.status)
	g.POST("/schema", h.schema)
	g.POST("/seed", h.seed)
}

type statusResponse struct {
	Mode             string `json:"mode"`
	WorkspaceHost    string `json:"workspace_host,omitempty"`
	ClusterID        string `json:"cluster_id,omitempty"`
	WarehouseDriver  string `json:"warehouse_driver"`
	CacheDriver      string `json:"cache_driver"`
	MessagingEnabled bool   `json:"messaging_enabled"`
	UploadDriver     string `json:"upload_driver"`
	ArchiveEnabled   bool   `json:"archive_enabled"`
}

func (h *Handler) status(c echo.Context) error {
	b := response.New(c)

	_, span := httpTracer.Start(c.Request().Context(), "admin.status")
	defer span.End()

	return b.WithData(statusResponse{
		Mode:             string(h.svc.Mode()),
		WorkspaceHost:    h.cfg.Platform.WorkspaceHost,
		ClusterID:        h.cfg.Platform.ClusterID,
		WarehouseDriver:  h.cfg.Warehouse.Driver,
		CacheDriver:      h.cfg.Cache.Driver,
		MessagingEnabled: h.cfg.Messaging.Enabled,
		UploadDriver:     h.cfg.Upload.Driver,
		ArchiveEnabled:   h.cfg.Archive.Enabled,
	}).Build()
}

func (h *Handler) schema(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "admin.schema")
	defer span.End()

	if err := h.svc.EnsureSchema(ctx); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"schema": "ok"}).Build()
}

func (h *Handler) seed(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "admin.seed")
	defer span.End()

	if err := h.svc.Seed(ctx); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"seeded": true}).WithMeta("mode", string(h.svc.Mode())).Build()
}
