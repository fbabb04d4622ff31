package reward

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestDeriveRewardIDDeterministic(t *testing.T) {
	a := DeriveRewardID("board-1", KindTitle, 1)
	b := DeriveRewardID("board-1", KindTitle, 1)
	require.Equal(t, a, b)
	require.Equal(t, "rw:board-1:title:1", a)
}

func TestDeriveRewardIDDistinguishesInputs(t *testing.T) {
	seen := map[string]bool{}
	for _, boardID := range []string{"board-1", "board-2"} {
		for _, kind := range []Kind{KindTitle, KindNameEffect, KindMessageEffect, KindDecoration, KindCurrency} {
			for rank := 0; rank <= 3; rank++ {
				id := DeriveRewardID(boardID, kind, rank)
				require.False(t, seen[id], "duplicate id %s", id)
				seen[id] = true
			}
		}
	}
}

func TestSlotForKind(t *testing.T) {
	slot, ok := SlotForKind(KindNameEffect)
	require.True(t, ok)
	require.Equal(t, SlotNameEffect, slot)

	_, ok = SlotForKind(KindCurrency)
	require.False(t, ok)
}
