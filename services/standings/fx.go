package standings

import "go.uber.org/fx"

var Module = fx.Module("standings.service",
	fx.Provide(NewService),
)
