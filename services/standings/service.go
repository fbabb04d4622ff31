package standings

import (
	"context"
	"encoding/json"
	"time"

	"rankboard/pkg/errutil"
	"rankboard/pkg/rediskey"
	"rankboard/services/activity"
	"rankboard/services/board"
	"rankboard/services/member"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const snapshotTTL = 30 * time.Second

type Service struct {
	boards  *board.Service
	members *member.Service
	reader  *activity.Reader
	redis   *redis.Client

	cache *snapshotCache
}

type ServiceParams struct {
	fx.In
	Boards  *board.Service
	Members *member.Service
	Reader  *activity.Reader
	Redis   *redis.Client `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		boards:  p.Boards,
		members: p.Members,
		reader:  p.Reader,
		redis:   p.Redis,
		cache:   newSnapshotCache(snapshotTTL),
	}
}

// Compute runs one full aggregation and ranking pass for the board, updates
// the in-process cache, and publishes the snapshot to redis for other
// sessions' display reads. Pure computation; no reward side effects.
func (s *Service) Compute(ctx context.Context, b *board.Board) (*Snapshot, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("board_id", b.ID),
	}

	roster, err := s.members.List(ctx)
	if err != nil {
		zap.L().With(opts...).Error("failed to load member directory", zap.Error(err))
		roster = nil
	}

	snap, err := s.reader.Snapshot(ctx)
	if err != nil {
		// Degrade to an empty snapshot so the pass still produces a
		// (possibly empty) ranking instead of aborting the loop.
		zap.L().With(opts...).Error("failed to read activity sources", zap.Error(err))
		snap = &activity.Snapshot{}
	}

	entries, err := s.boards.ManualEntries(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	stats := Aggregate(b, snap, roster, entries, time.Now())
	ordered, top3 := Rank(b, stats, entries)

	result := &Snapshot{
		BoardID:    b.ID,
		Rows:       ordered,
		Top3:       top3,
		ComputedAt: time.Now(),
	}
	if b.IsGroupGoal {
		result.Goal = &board.GoalState{
			Progress:    b.GoalProgress,
			Target:      b.GroupGoalTarget,
			AchievedAt:  b.GoalAchievedAt,
			LastResetAt: b.GoalLastResetAt,
		}
	}

	s.cache.Set(b.ID, result)
	s.publish(ctx, result)

	return result, nil
}

// Stats recomputes raw per-member stats for a board without ranking. Used
// by callers that need eligibility context beyond the visible rows.
func (s *Service) Stats(ctx context.Context, b *board.Board) (map[string]*MemberStat, error) {
	roster, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.reader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.boards.ManualEntries(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return Aggregate(b, snap, roster, entries, time.Now()), nil
}

// Standings returns the board's current snapshot, serving from cache when
// fresh and coalescing concurrent recomputes.
func (s *Service) Standings(ctx context.Context, boardID string) (*Snapshot, error) {
	if snap, ok := s.cache.Get(boardID); ok {
		return snap, nil
	}

	v, err := s.cache.Do(boardID, func() (interface{}, error) {
		b, err := s.boards.Get(ctx, boardID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, errutil.NotFound("board not found", nil)
		}
		return s.Compute(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot, forcing the next read to recompute.
func (s *Service) Invalidate(boardID string) {
	s.cache.Invalidate(boardID)
}

func (s *Service) publish(ctx context.Context, snap *Snapshot) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	key := rediskey.BuildBoardStandingsKey(snap.BoardID)
	if err := s.redis.Set(ctx, key, payload, snapshotTTL).Err(); err != nil {
		zap.L().Warn("failed to publish standings snapshot", zap.String("key", key), zap.Error(err))
	}

	if snap.Goal == nil {
		return
	}
	goalPayload, err := json.Marshal(snap.Goal)
	if err != nil {
		return
	}
	goalKey := rediskey.BuildBoardGoalKey(snap.BoardID)
	if err := s.redis.Set(ctx, goalKey, goalPayload, snapshotTTL).Err(); err != nil {
		zap.L().Warn("failed to publish goal snapshot", zap.String("key", goalKey), zap.Error(err))
	}
}
