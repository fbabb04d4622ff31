package orchestrator

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"rankboard/services/activity"
	"rankboard/services/board"
	"rankboard/services/member"
	"rankboard/services/reward"
	"rankboard/services/standings"
	"rankboard/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fixture struct {
	db        *gorm.DB
	boards    *board.Service
	rewards   *reward.Service
	standings *standings.Service
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t,
		&member.Member{},
		&board.Board{}, &board.ManualEntry{}, &board.Tombstone{},
		&activity.WorkItem{}, &activity.WorkItemShare{}, &activity.Post{}, &activity.DriverRun{}, &activity.LateRecord{},
		&reward.Item{}, &reward.Holding{}, &reward.Equipment{}, &reward.Claim{}, &reward.WalletEntry{}, &reward.Balance{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	boards := board.NewService(board.ServiceParams{DB: db, Node: node})
	members := member.NewService(member.ServiceParams{DB: db})
	reader := activity.NewReader(activity.ReaderParams{DB: db})
	rewards := reward.NewService(reward.ServiceParams{DB: db, Node: node})
	standingsSvc := standings.NewService(standings.ServiceParams{
		Boards:  boards,
		Members: members,
		Reader:  reader,
	})

	svc := NewService(Params{
		Boards:    boards,
		Standings: standingsSvc,
		Rewards:   rewards,
	})

	return &fixture{db: db, boards: boards, rewards: rewards, standings: standingsSvc, svc: svc}
}

func (f *fixture) seedMembers(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.db.Create(&member.Member{ID: id, DisplayName: id}).Error)
	}
}

func TestRecomputeBoardAbsentIsSkip(t *testing.T) {
	f := newFixture(t)

	results, err := f.svc.RecomputeBoard(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestRecomputeBoardDeletedMidPassIsSkip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.boards.Create(ctx, &board.Board{Title: "Doomed", MetricType: board.MetricPostCount})
	require.NoError(t, err)
	require.NoError(t, f.boards.Delete(ctx, b.ID))

	results, err := f.svc.RecomputeBoard(ctx, b.ID)
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestRecomputeManualBoardDistributesRewards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedMembers(t, "alice", "bob")

	b, err := f.boards.Create(ctx, &board.Board{
		Title:      "Scores",
		MetricType: board.MetricTotalQuantity,
		IsManual:   true,
		RewardType: board.RewardText,
		Cosmetics: datatypes.NewJSONType([]board.RankCosmetics{
			{Title: "Champion", NameEffect: "glow", MessageEffect: "sparkle"},
			{Title: "Runner-up", MessageEffect: "shine"},
		}),
	})
	require.NoError(t, err)

	_, err = f.boards.UpsertManualEntry(ctx, &board.ManualEntry{BoardID: b.ID, Name: "alice", Quantity: 50})
	require.NoError(t, err)
	_, err = f.boards.UpsertManualEntry(ctx, &board.ManualEntry{BoardID: b.ID, Name: "bob", Quantity: 30})
	require.NoError(t, err)

	results, err := f.svc.RecomputeBoard(ctx, b.ID)
	require.NoError(t, err)
	for _, r := range results {
		require.NoError(t, r.Err)
	}

	holds, err := f.rewards.Holds(ctx, "alice", reward.DeriveRewardID(b.ID, reward.KindTitle, 1))
	require.NoError(t, err)
	require.True(t, holds)

	holds, err = f.rewards.Holds(ctx, "bob", reward.DeriveRewardID(b.ID, reward.KindTitle, 2))
	require.NoError(t, err)
	require.True(t, holds)

	snap, err := f.standings.Standings(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, snap.Rows, 2)
	require.Equal(t, "alice", snap.Rows[0].MemberID)
}

func TestRecomputeGroupGoalBoardPaysOnAchievement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedMembers(t, "alice", "bob")

	b, err := f.boards.Create(ctx, &board.Board{
		Title:           "Team Goal",
		MetricType:      board.MetricTotalQuantity,
		IsManual:        true,
		IsGroupGoal:     true,
		GroupGoalTarget: 50,
		RewardType:      board.RewardItem,
		RewardItemRef:   "itm-star",
		RewardAmount:    1,
	})
	require.NoError(t, err)

	_, err = f.boards.UpsertManualEntry(ctx, &board.ManualEntry{BoardID: b.ID, Name: "alice", Quantity: 40})
	require.NoError(t, err)
	_, err = f.boards.UpsertManualEntry(ctx, &board.ManualEntry{BoardID: b.ID, Name: "bob", Quantity: 20})
	require.NoError(t, err)

	_, err = f.svc.RecomputeBoard(ctx, b.ID)
	require.NoError(t, err)
	// Recompute again; the epoch claim keeps the payout single.
	_, err = f.svc.RecomputeBoard(ctx, b.ID)
	require.NoError(t, err)

	for _, id := range []string{"alice", "bob"} {
		holdings, err := f.rewards.Holdings(ctx, id)
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		require.Equal(t, "itm-star", holdings[0].ItemID)
		require.Equal(t, int64(1), holdings[0].Quantity)
	}

	goal, err := f.boards.GoalState(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, goal.AchievedAt)
	require.Equal(t, float64(60), goal.Progress)
}

func TestRecomputeAllVisitsEveryBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedMembers(t, "alice")

	for _, title := range []string{"One", "Two"} {
		b, err := f.boards.Create(ctx, &board.Board{Title: title, MetricType: board.MetricTotalQuantity, IsManual: true})
		require.NoError(t, err)
		_, err = f.boards.UpsertManualEntry(ctx, &board.ManualEntry{BoardID: b.ID, Name: "alice", Quantity: 10})
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.RecomputeAll(ctx))

	boards, err := f.boards.List(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	for _, b := range boards {
		snap, err := f.standings.Standings(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, snap.Rows, 1)
	}
}
