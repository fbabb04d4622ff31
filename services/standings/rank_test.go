package standings

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rankboard/services/board"
)

func statWith(id, name string, quantity float64) *MemberStat {
	st := newMemberStat(id, name)
	st.Quantity = quantity
	return st
}

func TestRankManualEntriesTakePrecedence(t *testing.T) {
	b := &board.Board{MetricType: board.MetricTotalQuantity}
	stats := map[string]*MemberStat{
		"alice": statWith("alice", "Alice", 5),
		"bob":   statWith("bob", "Bob", 100),
	}
	entries := []*board.ManualEntry{
		{Name: "Alice", Quantity: 50},
		{Name: "Bob", Quantity: 30},
	}

	ordered, top3 := Rank(b, stats, entries)

	require.Len(t, ordered, 2)
	require.Equal(t, "alice", ordered[0].MemberID)
	require.Equal(t, 1, ordered[0].Rank)
	require.Equal(t, float64(50), ordered[0].Value)
	require.True(t, ordered[0].Manual)
	require.Equal(t, "bob", ordered[1].MemberID)
	require.Equal(t, 2, ordered[1].Rank)
	require.Equal(t, ordered, top3)
}

func TestRankManualUnknownNameKeepsRawID(t *testing.T) {
	b := &board.Board{MetricType: board.MetricTotalQuantity}
	entries := []*board.ManualEntry{{Name: "Stranger", Quantity: 10}}

	ordered, _ := Rank(b, map[string]*MemberStat{}, entries)

	require.Len(t, ordered, 1)
	require.Equal(t, "Stranger", ordered[0].MemberID)
	require.Equal(t, "Stranger", ordered[0].Name)
}

func TestRankManualTiesKeepInsertionOrder(t *testing.T) {
	b := &board.Board{MetricType: board.MetricTotalQuantity}
	entries := []*board.ManualEntry{
		{Name: "First", Quantity: 10},
		{Name: "Second", Quantity: 10},
	}

	ordered, _ := Rank(b, map[string]*MemberStat{}, entries)

	require.Equal(t, "First", ordered[0].Name)
	require.Equal(t, "Second", ordered[1].Name)
}

func TestRankComputedExcludesZeroValues(t *testing.T) {
	b := &board.Board{MetricType: board.MetricTotalQuantity}
	stats := map[string]*MemberStat{
		"alice": statWith("alice", "Alice", 12),
		"bob":   statWith("bob", "Bob", 0),
	}

	ordered, top3 := Rank(b, stats, nil)

	require.Len(t, ordered, 1)
	require.Equal(t, "alice", ordered[0].MemberID)
	require.Len(t, top3, 1)
}

func TestRankComputedOrderAndTopThree(t *testing.T) {
	b := &board.Board{MetricType: board.MetricTotalQuantity}
	stats := map[string]*MemberStat{
		"a": statWith("a", "Ann", 10),
		"b": statWith("b", "Ben", 30),
		"c": statWith("c", "Cal", 20),
		"d": statWith("d", "Dee", 5),
	}

	ordered, top3 := Rank(b, stats, nil)

	require.Len(t, ordered, 4)
	require.Equal(t, []string{"b", "c", "a", "d"}, []string{
		ordered[0].MemberID, ordered[1].MemberID, ordered[2].MemberID, ordered[3].MemberID,
	})
	require.Len(t, top3, 3)
	require.Equal(t, 1, top3[0].Rank)
	require.Equal(t, 3, top3[2].Rank)
}

func TestRankComputedTieBreaksByName(t *testing.T) {
	b := &board.Board{MetricType: board.MetricTotalQuantity}
	stats := map[string]*MemberStat{
		"z": statWith("z", "Zoe", 10),
		"a": statWith("a", "Amy", 10),
	}

	ordered, _ := Rank(b, stats, nil)

	require.Equal(t, "Amy", ordered[0].Name)
	require.Equal(t, "Zoe", ordered[1].Name)
}

func TestRankNoLateMonthAlphabetical(t *testing.T) {
	b := &board.Board{MetricType: board.MetricNoLateMonth}
	zoe := newMemberStat("z", "Zoe")
	amy := newMemberStat("a", "Amy")
	late := newMemberStat("l", "Liz")
	late.LateThisMonth = 2

	ordered, _ := Rank(b, map[string]*MemberStat{"z": zoe, "a": amy, "l": late}, nil)

	require.Len(t, ordered, 2)
	require.Equal(t, "Amy", ordered[0].Name)
	require.Equal(t, "Zoe", ordered[1].Name)
}
