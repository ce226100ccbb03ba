package records

import (
	"go.uber.org/fx"

	"github.com/lakedesk/lakedesk/internal/platform"
)

// Module provides the record service to Fx.
var Module = fx.Options(
	fx.Provide(func(c *platform.Client) Backend { return c }),
	fx.Provide(NewService),
)
