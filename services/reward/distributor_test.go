package reward

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"rankboard/services/activity"
	"rankboard/services/board"
	"rankboard/services/member"
	"rankboard/services/standings"
	"rankboard/services/testutil"
)

func newRewardService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewTestDB(t, &Item{}, &Holding{}, &Equipment{}, &Claim{}, &WalletEntry{}, &Balance{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(ServiceParams{DB: db, Node: node})
}

func cosmeticsBoard(id string) *board.Board {
	return &board.Board{
		ID:         id,
		Title:      "Podium",
		MetricType: board.MetricTotalQuantity,
		RewardType: board.RewardText,
		Cosmetics: datatypes.NewJSONType([]board.RankCosmetics{
			{Title: "Champion", NameEffect: "glow", MessageEffect: "sparkle", Decoration: "crown"},
			{Title: "Runner-up", MessageEffect: "shine"},
			{Title: "Third"},
		}),
	}
}

func row(rank int, memberID string, value float64) standings.Row {
	return standings.Row{Rank: rank, MemberID: memberID, Name: memberID, Value: value}
}

func requireNoFailures(t *testing.T, results []ActionResult) {
	t.Helper()
	for _, r := range results {
		require.NoError(t, r.Err, "action %s on %s", r.Action, r.ItemID)
	}
}

func TestDistributeGrantsAndEquipsPodium(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()
	b := cosmeticsBoard("b1")
	top3 := []standings.Row{row(1, "alice", 50), row(2, "bob", 30)}

	requireNoFailures(t, svc.Distribute(ctx, b, top3, top3, nil))

	for _, kind := range []Kind{KindTitle, KindNameEffect, KindMessageEffect, KindDecoration} {
		holds, err := svc.Holds(ctx, "alice", DeriveRewardID("b1", kind, 1))
		require.NoError(t, err)
		require.True(t, holds, "alice should hold rank-1 %s", kind)
	}

	holds, err := svc.Holds(ctx, "bob", DeriveRewardID("b1", KindTitle, 2))
	require.NoError(t, err)
	require.True(t, holds)
	// The name effect only exists for rank 1.
	holds, err = svc.Holds(ctx, "bob", DeriveRewardID("b1", KindNameEffect, 2))
	require.NoError(t, err)
	require.False(t, holds)

	equipped, err := svc.Equipped(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, DeriveRewardID("b1", KindTitle, 1), equipped[SlotTitle])
	require.Equal(t, DeriveRewardID("b1", KindNameEffect, 1), equipped[SlotNameEffect])
}

func TestDistributeIdempotent(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()
	b := cosmeticsBoard("b1")
	b.RewardType = board.RewardItem
	b.RewardItemRef = "itm-gold"
	b.RewardAmount = 2
	top3 := []standings.Row{row(1, "alice", 50), row(2, "bob", 30)}

	requireNoFailures(t, svc.Distribute(ctx, b, top3, top3, nil))
	requireNoFailures(t, svc.Distribute(ctx, b, top3, top3, nil))

	titleHolding, err := svc.holdings.FindOne(ctx, &Holding{MemberID: "alice", ItemID: DeriveRewardID("b1", KindTitle, 1)})
	require.NoError(t, err)
	require.NotNil(t, titleHolding)
	require.Equal(t, int64(1), titleHolding.Quantity)

	// Podium item payout is claim-gated: single grant per rank per day.
	goldHolding, err := svc.holdings.FindOne(ctx, &Holding{MemberID: "alice", ItemID: "itm-gold"})
	require.NoError(t, err)
	require.NotNil(t, goldHolding)
	require.Equal(t, int64(2), goldHolding.Quantity)

	claims, err := svc.claims.Find(ctx, &Claim{BoardID: "b1"})
	require.NoError(t, err)
	require.Len(t, claims, 2)
}

func TestDistributeReorderConverges(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()
	b := cosmeticsBoard("b1")

	first := []standings.Row{row(1, "alice", 50), row(2, "bob", 40), row(3, "carol", 30)}
	requireNoFailures(t, svc.Distribute(ctx, b, first, first, nil))

	second := []standings.Row{row(1, "bob", 60), row(2, "alice", 50), row(3, "carol", 30)}
	requireNoFailures(t, svc.Distribute(ctx, b, second, second, nil))

	holds, err := svc.Holds(ctx, "alice", DeriveRewardID("b1", KindTitle, 1))
	require.NoError(t, err)
	require.False(t, holds, "alice must not keep rank-1 cosmetics")

	holds, err = svc.Holds(ctx, "alice", DeriveRewardID("b1", KindTitle, 2))
	require.NoError(t, err)
	require.True(t, holds)

	holds, err = svc.Holds(ctx, "bob", DeriveRewardID("b1", KindTitle, 1))
	require.NoError(t, err)
	require.True(t, holds)

	holds, err = svc.Holds(ctx, "bob", DeriveRewardID("b1", KindTitle, 2))
	require.NoError(t, err)
	require.False(t, holds)

	equipped, err := svc.Equipped(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, DeriveRewardID("b1", KindTitle, 1), equipped[SlotTitle])
}

func TestDistributeZeroValueSlotRevokes(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()
	b := cosmeticsBoard("b1")

	first := []standings.Row{row(1, "alice", 50), row(2, "bob", 30)}
	requireNoFailures(t, svc.Distribute(ctx, b, first, first, nil))

	// Bob's slot value dropped to zero; the slot grants nothing and his
	// cosmetics are revoked.
	second := []standings.Row{row(1, "alice", 50), row(2, "bob", 0)}
	requireNoFailures(t, svc.Distribute(ctx, b, second, second, nil))

	holdings, err := svc.Holdings(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, holdings)

	equipped, err := svc.Equipped(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, equipped)
}

func TestDistributeDepartedHolderRevoked(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()
	b := cosmeticsBoard("b1")

	first := []standings.Row{row(1, "alice", 50), row(2, "bob", 30)}
	requireNoFailures(t, svc.Distribute(ctx, b, first, first, nil))

	second := []standings.Row{row(1, "alice", 50), row(2, "carol", 45)}
	requireNoFailures(t, svc.Distribute(ctx, b, second, second, nil))

	holdings, err := svc.Holdings(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, holdings)

	holds, err := svc.Holds(ctx, "carol", DeriveRewardID("b1", KindTitle, 2))
	require.NoError(t, err)
	require.True(t, holds)
}

func TestGroupGoalPayoutOncePerEpoch(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()
	b := &board.Board{
		ID:            "g1",
		Title:         "Team Goal",
		MetricType:    board.MetricTotalQuantity,
		IsGroupGoal:   true,
		RewardType:    board.RewardItem,
		RewardItemRef: "itm-star",
		RewardAmount:  1,
	}

	now := time.Now()
	goal := &board.GoalState{Progress: 120, Target: 100, AchievedAt: &now}
	ordered := []standings.Row{row(1, "alice", 70), row(2, "bob", 50)}

	requireNoFailures(t, svc.Distribute(ctx, b, ordered, ordered, goal))
	requireNoFailures(t, svc.Distribute(ctx, b, ordered, ordered, goal))

	for _, memberID := range []string{"alice", "bob"} {
		holding, err := svc.holdings.FindOne(ctx, &Holding{MemberID: memberID, ItemID: "itm-star"})
		require.NoError(t, err)
		require.NotNil(t, holding)
		require.Equal(t, int64(1), holding.Quantity)
	}

	claims, err := svc.claims.Find(ctx, &Claim{BoardID: "g1"})
	require.NoError(t, err)
	require.Len(t, claims, 2)
	for _, c := range claims {
		require.Equal(t, 0, c.Rank)
		require.Equal(t, "genesis", c.Period)
		require.NotEmpty(t, c.MemberID)
	}

	// A new epoch allows one more payout.
	reset := now.Add(time.Hour)
	goal.LastResetAt = &reset
	requireNoFailures(t, svc.Distribute(ctx, b, ordered, ordered, goal))

	holding, err := svc.holdings.FindOne(ctx, &Holding{MemberID: "alice", ItemID: "itm-star"})
	require.NoError(t, err)
	require.Equal(t, int64(2), holding.Quantity)
}

func TestGroupGoalRetryPaysOnlyUnclaimedMembers(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()
	b := &board.Board{
		ID:            "g1",
		Title:         "Team Goal",
		MetricType:    board.MetricTotalQuantity,
		IsGroupGoal:   true,
		RewardType:    board.RewardItem,
		RewardItemRef: "itm-star",
		RewardAmount:  1,
	}

	now := time.Now()
	goal := &board.GoalState{Progress: 120, Target: 100, AchievedAt: &now}
	ordered := []standings.Row{row(1, "alice", 70), row(2, "bob", 50)}

	// An earlier pass paid alice and crashed before reaching bob.
	require.NoError(t, svc.RecordClaim(ctx, "g1", 0, KindItem, 1, "genesis", "alice"))

	requireNoFailures(t, svc.Distribute(ctx, b, ordered, ordered, goal))

	aliceHoldings, err := svc.Holdings(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, aliceHoldings)

	holding, err := svc.holdings.FindOne(ctx, &Holding{MemberID: "bob", ItemID: "itm-star"})
	require.NoError(t, err)
	require.NotNil(t, holding)
	require.Equal(t, int64(1), holding.Quantity)
}

func TestClaimLookupHonorsZeroValuedKeyFields(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordClaim(ctx, "b1", 1, KindCurrency, 10, "2026-09-01", ""))

	exists, err := svc.ClaimExists(ctx, "b1", 0, KindCurrency, 10, "2026-09-01", "")
	require.NoError(t, err)
	require.False(t, exists)

	exists, err = svc.ClaimExists(ctx, "b1", 1, KindCurrency, 10, "2026-09-01", "alice")
	require.NoError(t, err)
	require.False(t, exists)

	exists, err = svc.ClaimExists(ctx, "b1", 1, KindCurrency, 10, "2026-09-01", "")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestGroupGoalBoardSkipsPodiumPayout(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()
	b := &board.Board{
		ID:            "g1",
		MetricType:    board.MetricTotalQuantity,
		IsGroupGoal:   true,
		RewardType:    board.RewardItem,
		RewardItemRef: "itm-star",
		RewardAmount:  1,
	}
	ordered := []standings.Row{row(1, "alice", 70)}

	// Goal not achieved: nobody gets anything, podium path stays off.
	requireNoFailures(t, svc.Distribute(ctx, b, ordered, ordered, &board.GoalState{Progress: 10, Target: 100}))

	holdings, err := svc.Holdings(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, holdings)

	claims, err := svc.claims.Find(ctx, &Claim{BoardID: "g1"})
	require.NoError(t, err)
	require.Empty(t, claims)
}

func TestDistributeStyleChangeUpdatesLabelInPlace(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()
	b := cosmeticsBoard("b1")
	top3 := []standings.Row{row(1, "alice", 50)}

	requireNoFailures(t, svc.Distribute(ctx, b, top3, top3, nil))

	b.Cosmetics = datatypes.NewJSONType([]board.RankCosmetics{
		{Title: "Grand Champion", NameEffect: "glow", MessageEffect: "sparkle", Decoration: "crown"},
		{Title: "Runner-up", MessageEffect: "shine"},
		{Title: "Third"},
	})
	requireNoFailures(t, svc.Distribute(ctx, b, top3, top3, nil))

	itemID := DeriveRewardID("b1", KindTitle, 1)
	item, err := svc.items.FindOne(ctx, &Item{ID: itemID})
	require.NoError(t, err)
	require.Equal(t, "Grand Champion", item.Label)

	// Identity unchanged, so the holding still points at the same row.
	holds, err := svc.Holds(ctx, "alice", itemID)
	require.NoError(t, err)
	require.True(t, holds)
}

// Manual-scores scenario run end to end through aggregation, ranking and
// distribution.
func TestManualBoardEndToEnd(t *testing.T) {
	svc := newRewardService(t)
	ctx := context.Background()

	b := cosmeticsBoard("L1")
	b.IsManual = true
	roster := []*member.Member{
		{ID: "alice", DisplayName: "Alice"},
		{ID: "bob", DisplayName: "Bob"},
	}
	entries := []*board.ManualEntry{
		{BoardID: "L1", Name: "Alice", Quantity: 50},
		{BoardID: "L1", Name: "Bob", Quantity: 30},
	}

	stats := standings.Aggregate(b, &activity.Snapshot{}, roster, entries, time.Now())
	ordered, top3 := standings.Rank(b, stats, entries)

	require.Len(t, ordered, 2)
	require.Equal(t, "alice", ordered[0].MemberID)
	require.Equal(t, float64(50), ordered[0].Value)
	require.Equal(t, "bob", ordered[1].MemberID)

	requireNoFailures(t, svc.Distribute(ctx, b, ordered, top3, nil))

	for _, kind := range []Kind{KindTitle, KindNameEffect, KindMessageEffect} {
		holds, err := svc.Holds(ctx, "alice", DeriveRewardID("L1", kind, 1))
		require.NoError(t, err)
		require.True(t, holds)
	}
	for _, kind := range []Kind{KindTitle, KindMessageEffect} {
		holds, err := svc.Holds(ctx, "bob", DeriveRewardID("L1", kind, 2))
		require.NoError(t, err)
		require.True(t, holds)
	}

	before, err := svc.Holdings(ctx, "alice")
	require.NoError(t, err)

	requireNoFailures(t, svc.Distribute(ctx, b, ordered, top3, nil))

	after, err := svc.Holdings(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))
	for i := range before {
		require.Equal(t, before[i].Quantity, after[i].Quantity)
	}
}
