package records

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/messaging"
	recordsvc "github.com/lakedesk/lakedesk/internal/service/records"
	"github.com/lakedesk/lakedesk/internal/worker"
)

var workerTracer = otel.Tracer("github.com/lakedesk/lakedesk/worker/records")

// Module registers record lifecycle worker handlers.
var Module = fx.Module("worker_records",
	fx.Provide(
		fx.Annotate(
			NewRecordEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewRecordEventHandler sets up a worker handler that processes record
// lifecycle events from the bus.
func NewRecordEventHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.records.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event recordsvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode record event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("event.type", event.Type))

		switch event.Type {
		case recordsvc.EventPlatformDegraded:
			logger.Warn("platform degraded to mock mode", zap.String("mode", event.Mode))
		case recordsvc.EventOrderCreated, recordsvc.EventInvoiceCreated:
			logger.Info("record created event processed",
				zap.String("type", event.Type),
				zap.String("kind", event.Kind),
				zap.Int64("id", event.ID),
				zap.String("status", event.Status),
			)
		case recordsvc.EventRecordUpdated:
			logger.Info("record updated event processed",
				zap.String("kind", event.Kind),
				zap.Int64("id", event.ID),
				zap.String("status", event.Status),
			)
		default:
			logger.Warn("unknown record event type", zap.String("type", event.Type))
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
