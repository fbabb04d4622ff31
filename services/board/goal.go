package board

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GoalState is the group-goal progress snapshot exposed for display and
// consumed by the reward distributor.
type GoalState struct {
	Progress    float64    `json:"progress"`
	Target      float64    `json:"target"`
	AchievedAt  *time.Time `json:"achieved_at,omitempty"`
	LastResetAt *time.Time `json:"last_reset_at,omitempty"`
}

// UpdateGroupGoal recomputes cumulative progress from the board's manual
// entries and persists the achievement transition. Only group-goal boards
// with the total_quantity metric participate; anything else, and any
// non-positive target, is skipped silently rather than failing the pass.
func (s *Service) UpdateGroupGoal(ctx context.Context, b *Board) (*GoalState, error) {
	if b == nil || !b.IsGroupGoal || b.MetricType != MetricTotalQuantity {
		return nil, nil
	}
	if b.GroupGoalTarget <= 0 {
		return nil, nil
	}

	entries, err := s.ManualEntries(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	// Before the first reset the lifetime quantity is the progress; once an
	// epoch is active only amounts accrued within it count.
	var progress float64
	for _, e := range entries {
		if b.GoalLastResetAt == nil {
			progress += e.Quantity
		} else {
			progress += e.PeriodQuantity
		}
	}

	updates := map[string]any{
		"goal_progress": progress,
		"updated_at":    time.Now(),
	}

	achievedAt := b.GoalAchievedAt
	if achievedAt == nil && progress >= b.GroupGoalTarget {
		now := time.Now()
		achievedAt = &now
		updates["goal_achieved_at"] = now
		zap.L().Info("group goal achieved",
			zap.String("board_id", b.ID),
			zap.Float64("progress", progress),
			zap.Float64("target", b.GroupGoalTarget),
		)
	}

	if err := s.boards.Update(ctx, b.ID, updates); err != nil {
		return nil, err
	}

	b.GoalProgress = progress
	b.GoalAchievedAt = achievedAt

	return &GoalState{
		Progress:    progress,
		Target:      b.GroupGoalTarget,
		AchievedAt:  achievedAt,
		LastResetAt: b.GoalLastResetAt,
	}, nil
}

// ResetGroupGoal begins a new epoch: every entry's period quantity is
// zeroed, progress and achievement are cleared, and a fresh reset stamp is
// written. Lifetime quantities on the entries are untouched.
func (s *Service) ResetGroupGoal(ctx context.Context, boardID string) error {
	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Model(&ManualEntry{}).
			Where("board_id = ?", boardID).
			Update("period_quantity", 0).Error; err != nil {
			return err
		}

		return tx.WithContext(ctx).Model(&Board{}).
			Where("id = ?", boardID).
			Updates(map[string]any{
				"goal_progress":      0,
				"goal_achieved_at":   nil,
				"goal_last_reset_at": now,
				"updated_at":         now,
			}).Error
	})
}

// GoalState reads the current goal snapshot without recomputing progress.
func (s *Service) GoalState(ctx context.Context, boardID string) (*GoalState, error) {
	b, err := s.Get(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if b == nil || !b.IsGroupGoal {
		return nil, nil
	}
	return &GoalState{
		Progress:    b.GoalProgress,
		Target:      b.GroupGoalTarget,
		AchievedAt:  b.GoalAchievedAt,
		LastResetAt: b.GoalLastResetAt,
	}, nil
}
