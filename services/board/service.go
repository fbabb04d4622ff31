package board

import (
	"context"
	"time"

	"rankboard/pkg/db/option"
	"rankboard/pkg/errutil"
	"rankboard/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	boards     repository.Repository[Board]
	entries    repository.Repository[ManualEntry]
	tombstones repository.Repository[Tombstone]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		boards:     repository.ProvideStore[Board](p.DB),
		entries:    repository.ProvideStore[ManualEntry](p.DB),
		tombstones: repository.ProvideStore[Tombstone](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, b *Board) (*Board, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("title", b.Title),
	}

	if !b.MetricType.Valid() {
		return nil, errutil.BadRequest("unsupported metric type", nil)
	}

	b.ID = s.node.Generate().String()
	b.Slug = slug.Make(b.Title)
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt

	if err := s.boards.Create(ctx, b); err != nil {
		zap.L().With(opts...).Error("failed to create board", zap.Error(err))
		return nil, err
	}

	return b, nil
}

func (s *Service) Update(ctx context.Context, b *Board) (*Board, error) {
	existing, err := s.Get(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errutil.NotFound("board not found", nil)
	}

	if !b.MetricType.Valid() {
		return nil, errutil.BadRequest("unsupported metric type", nil)
	}

	// Write every configurable column explicitly so an administrator can
	// clear a filter, unset a flag or zero a reward amount. Goal state
	// columns stay untouched; the goal machinery owns them.
	b.Slug = slug.Make(b.Title)
	b.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Model(&Board{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"slug":              b.Slug,
			"title":             b.Title,
			"metric_type":       b.MetricType,
			"activity_filter":   b.ActivityFilter,
			"is_manual":         b.IsManual,
			"is_group_goal":     b.IsGroupGoal,
			"group_goal_target": b.GroupGoalTarget,
			"reward_type":       b.RewardType,
			"reward_amount":     b.RewardAmount,
			"reward_item_ref":   b.RewardItemRef,
			"cosmetics":         b.Cosmetics,
			"updated_at":        b.UpdatedAt,
		}).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, b.ID)
}

// Get returns the board, or nil when it does not exist or has been
// tombstoned. A tombstoned id is treated as absent on every read path.
func (s *Service) Get(ctx context.Context, id string) (*Board, error) {
	dead, err := s.IsDeleted(ctx, id)
	if err != nil {
		return nil, err
	}
	if dead {
		return nil, nil
	}
	return s.boards.FindOne(ctx, &Board{ID: id})
}

// List returns every live board, oldest first. Boards whose id appears in
// the tombstone set are filtered out even if a stale copy re-created a row.
func (s *Service) List(ctx context.Context) ([]*Board, error) {
	all, err := s.boards.Find(ctx, &Board{}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "created_at",
		OrderBy: "asc",
		Allow:   map[string]bool{"created_at": true},
	}))
	if err != nil {
		return nil, err
	}

	stones, err := s.tombstones.Find(ctx, &Tombstone{})
	if err != nil {
		return nil, err
	}
	dead := make(map[string]bool, len(stones))
	for _, t := range stones {
		dead[t.BoardID] = true
	}

	live := make([]*Board, 0, len(all))
	for _, b := range all {
		if !dead[b.ID] {
			live = append(live, b)
		}
	}
	return live, nil
}

// Delete tombstones the board id before removing the row, so a session still
// holding a stale copy refuses to resurrect it on its next sync.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tombstones.WithTrx(tx).Create(ctx, &Tombstone{
			BoardID:   id,
			DeletedAt: time.Now(),
		}); err != nil {
			return err
		}
		if err := s.boards.WithTrx(tx).Delete(ctx, &Board{ID: id}); err != nil {
			return err
		}
		return s.entries.WithTrx(tx).Delete(ctx, &ManualEntry{BoardID: id})
	})
}

// IsDeleted reports whether the board id has been tombstoned.
func (s *Service) IsDeleted(ctx context.Context, id string) (bool, error) {
	stone, err := s.tombstones.FindOne(ctx, &Tombstone{BoardID: id})
	if err != nil {
		return false, err
	}
	return stone != nil, nil
}

// UpsertManualEntry creates or updates one manual ranking row.
func (s *Service) UpsertManualEntry(ctx context.Context, e *ManualEntry) (*ManualEntry, error) {
	dead, err := s.IsDeleted(ctx, e.BoardID)
	if err != nil {
		return nil, err
	}
	if dead {
		return nil, errutil.NotFound("board not found", nil)
	}

	if e.ID != "" {
		existing, err := s.entries.FindOne(ctx, &ManualEntry{ID: e.ID})
		if err != nil {
			return nil, err
		}
		if existing != nil {
			e.UpdatedAt = time.Now()
			if err := s.db.WithContext(ctx).Model(&ManualEntry{}).
				Where("id = ?", e.ID).
				Updates(map[string]any{
					"rank":            e.Rank,
					"name":            e.Name,
					"quantity":        e.Quantity,
					"duration":        e.Duration,
					"period_quantity": e.PeriodQuantity,
					"updated_at":      e.UpdatedAt,
				}).Error; err != nil {
				return nil, err
			}
			return s.entries.FindOne(ctx, &ManualEntry{ID: e.ID})
		}
	}

	e.ID = s.node.Generate().String()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ManualEntries returns the board's manual rows in insertion order, so ties
// on quantity keep a stable order downstream.
func (s *Service) ManualEntries(ctx context.Context, boardID string) ([]*ManualEntry, error) {
	return s.entries.Find(ctx, &ManualEntry{BoardID: boardID}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "created_at",
		OrderBy: "asc",
		Allow:   map[string]bool{"created_at": true},
	}))
}
