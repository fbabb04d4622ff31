package board

import "go.uber.org/fx"

var Module = fx.Module("board.service",
	fx.Provide(NewService),
)
