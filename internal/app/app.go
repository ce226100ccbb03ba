package app

import (
	"go.uber.org/fx"

	"github.com/lakedesk/lakedesk/internal/archive"
	"github.com/lakedesk/lakedesk/internal/blob"
	"github.com/lakedesk/lakedesk/internal/cache"
	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/logger"
	"github.com/lakedesk/lakedesk/internal/messaging"
	"github.com/lakedesk/lakedesk/internal/observability"
	"github.com/lakedesk/lakedesk/internal/platform"
	grpcserver "github.com/lakedesk/lakedesk/internal/server/grpc"
	httpserver "github.com/lakedesk/lakedesk/internal/server/http"
	servicerecords "github.com/lakedesk/lakedesk/internal/service/records"
	transporthttp "github.com/lakedesk/lakedesk/internal/transport/http"
	"github.com/lakedesk/lakedesk/internal/worker"
	workerrecords "github.com/lakedesk/lakedesk/internal/worker/records"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	cache.Module,
	messaging.Module,
	archive.Module,
	blob.Module,
	platform.Module,
	servicerecords.Module,
)

// HTTP wires the HTTP and gRPC transports on top of the core modules. The
// gRPC server only listens when enabled in config.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
	grpcserver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerrecords.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
