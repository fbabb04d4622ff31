package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"rankboard/pkg/sequence"
	"rankboard/services/board"
	"rankboard/services/reward"
	"rankboard/services/standings"
)

// Service sequences one recomputation cycle per board: aggregate, rank,
// update the group goal, then distribute rewards. Cycles are triggered from
// the interval scheduler, from asynq workers and from the HTTP API, all
// uncoordinated; every downstream step is idempotent so overlapping cycles
// converge instead of corrupting state.
type Service struct {
	boards    *board.Service
	standings *standings.Service
	rewards   *reward.Service
	sequence  sequence.Generator
}

type Params struct {
	fx.In

	Boards    *board.Service
	Standings *standings.Service
	Rewards   *reward.Service
	Sequence  sequence.Generator `optional:"true"`
}

func NewService(p Params) *Service {
	return &Service{
		boards:    p.Boards,
		standings: p.Standings,
		rewards:   p.Rewards,
		sequence:  p.Sequence,
	}
}

// RecomputeAll runs one cycle over every live board. A board failing its
// cycle is logged and skipped; the loop always visits the rest.
func (s *Service) RecomputeAll(ctx context.Context) error {
	start := time.Now()
	traceID := trace.SpanFromContext(ctx).SpanContext().TraceID().String()
	zapLog := zap.L().With(zap.String("trace_id", traceID))

	if s.sequence != nil {
		if code, err := s.sequence.NextCycleCode(ctx); err == nil {
			zapLog = zapLog.With(zap.String("cycle_code", code))
		}
	}

	boards, err := s.boards.List(ctx)
	if err != nil {
		zapLog.Error("failed to list boards", zap.Error(err))
		return err
	}

	for _, b := range boards {
		if _, err := s.RecomputeBoard(ctx, b.ID); err != nil {
			zapLog.Error("board recompute failed",
				zap.String("board_id", b.ID),
				zap.Error(err))
			continue
		}
	}

	zapLog.Info("recompute cycle finished",
		zap.Int("boards", len(boards)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// RecomputeBoard runs one full cycle for a single board. A board deleted by
// another session mid-pass is treated as a clean skip, not an error.
func (s *Service) RecomputeBoard(ctx context.Context, boardID string) ([]reward.ActionResult, error) {
	b, err := s.boards.Get(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		zap.L().Debug("skipping recompute for absent board", zap.String("board_id", boardID))
		return nil, nil
	}

	goal, err := s.boards.UpdateGroupGoal(ctx, b)
	if err != nil {
		return nil, err
	}

	snap, err := s.standings.Compute(ctx, b)
	if err != nil {
		return nil, err
	}

	results := s.rewards.Distribute(ctx, b, snap.Rows, snap.Top3, goal)
	return results, nil
}
