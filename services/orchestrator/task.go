package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"rankboard/pkg/task"
	"rankboard/pkg/taskname"
)

var TaskModule = fx.Module("task.orchestrator",
	fx.Provide(NewTask),
)

type Task struct {
	service  *Service
	enqueuer task.Enqueuer
}

type TaskParams struct {
	fx.In

	Service  *Service
	Enqueuer task.Enqueuer `optional:"true"`
}

func NewTask(p TaskParams) *Task {
	return &Task{
		service:  p.Service,
		enqueuer: p.Enqueuer,
	}
}

// EnqueueRecompute queues a single-board cycle on the default queue.
func (t *Task) EnqueueRecompute(boardID string) error {
	payload, _ := json.Marshal(map[string]string{"board_id": boardID})
	_, err := t.enqueuer.Enqueue(asynq.NewTask(taskname.BoardRecompute, payload))
	return err
}

// EnqueueRecomputeAll queues a full cycle over every board.
func (t *Task) EnqueueRecomputeAll() error {
	_, err := t.enqueuer.Enqueue(asynq.NewTask(taskname.BoardRecomputeAll, nil))
	return err
}

// HandleRecomputeTask is the asynq worker for one board's cycle.
func (t *Task) HandleRecomputeTask(ctx context.Context, tk *asynq.Task) error {
	var payload struct {
		BoardID string `json:"board_id"`
	}
	if err := json.Unmarshal(tk.Payload(), &payload); err != nil {
		zap.L().Error("invalid recompute payload", zap.Error(err))
		return err
	}

	if _, err := t.service.RecomputeBoard(ctx, payload.BoardID); err != nil {
		zap.L().Error("failed to process recompute task",
			zap.String("board_id", payload.BoardID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// HandleRecomputeAllTask is the asynq worker for the full cycle.
func (t *Task) HandleRecomputeAllTask(ctx context.Context, _ *asynq.Task) error {
	return t.service.RecomputeAll(ctx)
}
