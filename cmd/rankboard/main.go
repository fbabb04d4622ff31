package main

import (
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"rankboard/internal/httpapi"
	"rankboard/internal/server"
	"rankboard/pkg/config"
	"rankboard/pkg/db"
	"rankboard/pkg/gen"
	"rankboard/pkg/health"
	"rankboard/pkg/logger"
	"rankboard/pkg/profiling"
	"rankboard/pkg/redis"
	"rankboard/pkg/sequence"
	"rankboard/pkg/task"
	"rankboard/pkg/taskname"
	"rankboard/services/activity"
	"rankboard/services/board"
	"rankboard/services/member"
	"rankboard/services/orchestrator"
	"rankboard/services/reward"
	"rankboard/services/standings"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		profiling.Module,
		db.Module,
		redis.Module,
		gen.Module,
		sequence.Module,
		health.Module,

		task.Client,
		task.Server,

		member.Module,
		activity.Module,
		board.Module,
		standings.Module,
		reward.Module,
		orchestrator.Module,
		orchestrator.TaskModule,

		httpapi.Module,
		server.Module,

		fx.Invoke(registerHandlers),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func registerHandlers(mux *asynq.ServeMux, t *orchestrator.Task) {
	mux.HandleFunc(taskname.BoardRecompute, t.HandleRecomputeTask)
	mux.HandleFunc(taskname.BoardRecomputeAll, t.HandleRecomputeAllTask)
}
