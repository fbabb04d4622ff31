package reward

import "fmt"

// DeriveRewardID returns the stable identity for a board's reward of a given
// kind and rank. It is a pure function of its inputs so every recomputation
// pass, in every session, resolves to the same item row. Group-level payouts
// use rank 0.
func DeriveRewardID(boardID string, kind Kind, rank int) string {
	return fmt.Sprintf("rw:%s:%s:%d", boardID, kind, rank)
}
