package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func createGoalBoard(t *testing.T, svc *Service, target float64) *Board {
	t.Helper()
	b, err := svc.Create(context.Background(), &Board{
		Title:           "Team Goal",
		MetricType:      MetricTotalQuantity,
		IsManual:        true,
		IsGroupGoal:     true,
		GroupGoalTarget: target,
	})
	require.NoError(t, err)
	return b
}

func TestUpdateGroupGoalSkipsNonGoalBoards(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, &Board{Title: "Plain", MetricType: MetricTotalQuantity})
	require.NoError(t, err)

	goal, err := svc.UpdateGroupGoal(ctx, b)
	require.NoError(t, err)
	require.Nil(t, goal)
}

func TestUpdateGroupGoalSkipsNonPositiveTarget(t *testing.T) {
	svc := newTestService(t)
	b := createGoalBoard(t, svc, 0)

	goal, err := svc.UpdateGroupGoal(context.Background(), b)
	require.NoError(t, err)
	require.Nil(t, goal)
}

func TestUpdateGroupGoalLifetimeProgressBeforeFirstReset(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	b := createGoalBoard(t, svc, 100)

	_, err := svc.UpsertManualEntry(ctx, &ManualEntry{BoardID: b.ID, Name: "Alice", Quantity: 40, PeriodQuantity: 10})
	require.NoError(t, err)
	_, err = svc.UpsertManualEntry(ctx, &ManualEntry{BoardID: b.ID, Name: "Bob", Quantity: 30, PeriodQuantity: 5})
	require.NoError(t, err)

	goal, err := svc.UpdateGroupGoal(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, goal)
	require.Equal(t, float64(70), goal.Progress)
	require.Nil(t, goal.AchievedAt)
}

func TestUpdateGroupGoalAchievementStampedOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	b := createGoalBoard(t, svc, 50)

	_, err := svc.UpsertManualEntry(ctx, &ManualEntry{BoardID: b.ID, Name: "Alice", Quantity: 60})
	require.NoError(t, err)

	goal, err := svc.UpdateGroupGoal(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, goal.AchievedAt)
	first := *goal.AchievedAt

	// A second pass must not move the achievement time.
	again, err := svc.UpdateGroupGoal(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, again.AchievedAt)
	require.True(t, again.AchievedAt.Equal(first))
}

func TestResetGroupGoalStartsNewEpoch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	b := createGoalBoard(t, svc, 50)

	_, err := svc.UpsertManualEntry(ctx, &ManualEntry{BoardID: b.ID, Name: "Alice", Quantity: 60, PeriodQuantity: 60})
	require.NoError(t, err)

	goal, err := svc.UpdateGroupGoal(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, goal.AchievedAt)

	require.NoError(t, svc.ResetGroupGoal(ctx, b.ID))

	fresh, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, float64(0), fresh.GoalProgress)
	require.Nil(t, fresh.GoalAchievedAt)
	require.NotNil(t, fresh.GoalLastResetAt)

	// Lifetime quantities survive a reset; only period amounts are zeroed.
	entries, err := svc.ManualEntries(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, float64(60), entries[0].Quantity)
	require.Equal(t, float64(0), entries[0].PeriodQuantity)

	// Post-reset progress counts only period amounts.
	goal, err = svc.UpdateGroupGoal(ctx, fresh)
	require.NoError(t, err)
	require.Equal(t, float64(0), goal.Progress)
	require.Nil(t, goal.AchievedAt)
}

func TestGoalStateRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	b := createGoalBoard(t, svc, 100)

	state, err := svc.GoalState(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, float64(100), state.Target)

	plain, err := svc.Create(ctx, &Board{Title: "Plain", MetricType: MetricPostCount})
	require.NoError(t, err)
	state, err = svc.GoalState(ctx, plain.ID)
	require.NoError(t, err)
	require.Nil(t, state)
}
