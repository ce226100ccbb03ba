package platform

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/store"
)

// Module provides the session client and binds it as the record store the
// rest of the application sees.
var Module = fx.Options(
	fx.Provide(func(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *Client {
		client := New(cfg, logger)
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return client
	}),
	fx.Provide(func(client *Client) store.Store { return client }),
)
