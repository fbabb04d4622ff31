package reward

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rankboard/services/board"
	"rankboard/services/standings"
)

// ActionResult reports one mutation attempted during a distribution pass.
// Failures are carried per action so one rank's broken grant never blocks
// the others.
type ActionResult struct {
	BoardID  string `json:"board_id"`
	Rank     int    `json:"rank"`
	MemberID string `json:"member_id,omitempty"`
	Action   string `json:"action"`
	ItemID   string `json:"item_id,omitempty"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

func (s *Service) result(b *board.Board, rank int, memberID, action, itemID string, err error) ActionResult {
	r := ActionResult{
		BoardID:  b.ID,
		Rank:     rank,
		MemberID: memberID,
		Action:   action,
		ItemID:   itemID,
		Err:      err,
	}
	if err != nil {
		r.Error = err.Error()
		zap.L().Warn("reward mutation failed",
			zap.String("board_id", b.ID),
			zap.Int("rank", rank),
			zap.String("member_id", memberID),
			zap.String("action", action),
			zap.String("item_id", itemID),
			zap.Error(err))
	}
	return r
}

// Distribute reconciles the board's reward state against the current
// standings. Every mutation it makes is idempotent, so repeated and
// concurrent passes over the same input converge: cosmetic state is driven
// to desired-holder-per-item, and currency/item payouts are gated by the
// claim ledger (once per rank per day for podium rewards, once per epoch for
// group goals). A pass never rolls back earlier ranks on a later failure; a
// retry repairs whatever was left incomplete.
func (s *Service) Distribute(ctx context.Context, b *board.Board, ordered []standings.Row, top3 []standings.Row, goal *board.GoalState) []ActionResult {
	var results []ActionResult

	results = append(results, s.materializeItems(ctx, b)...)

	occupants := make(map[int]string, 3)
	for _, row := range top3 {
		if row.Rank >= 1 && row.Rank <= 3 && row.Value != 0 {
			occupants[row.Rank] = row.MemberID
		}
	}

	results = append(results, s.reconcileCosmetics(ctx, b, occupants)...)

	if !b.IsGroupGoal {
		results = append(results, s.payPodium(ctx, b, occupants)...)
	} else {
		results = append(results, s.payGroupGoal(ctx, b, ordered, goal)...)
	}

	return results
}

// materializeItems upserts the board's reward item rows for ranks 1-3 from
// the configured cosmetics. Style changes update the label in place; the
// derived id never changes, so existing holdings keep pointing at the same
// row. The name effect only exists for rank 1.
func (s *Service) materializeItems(ctx context.Context, b *board.Board) []ActionResult {
	var results []ActionResult

	for rank := 1; rank <= 3; rank++ {
		cosmetics := b.CosmeticsForRank(rank)
		for _, kind := range CosmeticKinds {
			var label string
			switch kind {
			case KindTitle:
				label = cosmetics.Title
			case KindNameEffect:
				if rank != 1 {
					continue
				}
				label = cosmetics.NameEffect
			case KindMessageEffect:
				label = cosmetics.MessageEffect
			case KindDecoration:
				label = cosmetics.Decoration
			}
			if label == "" {
				continue
			}

			itemID := DeriveRewardID(b.ID, kind, rank)
			existing, err := s.items.FindOne(ctx, &Item{ID: itemID})
			if err != nil {
				results = append(results, s.result(b, rank, "", "materialize", itemID, err))
				continue
			}

			if existing == nil {
				err = s.items.Create(ctx, &Item{
					ID:        itemID,
					BoardID:   b.ID,
					Kind:      kind,
					Rank:      rank,
					Label:     label,
					CreatedAt: time.Now(),
					UpdatedAt: time.Now(),
				})
				if err != nil {
					results = append(results, s.result(b, rank, "", "materialize", itemID, err))
				}
				continue
			}

			if existing.Label != label {
				err = s.items.Update(ctx, itemID, &Item{Label: label, UpdatedAt: time.Now()})
				results = append(results, s.result(b, rank, "", "update_item", itemID, err))
			}
		}
	}

	return results
}

// reconcileCosmetics drives every cosmetic item of the board to exactly one
// desired holder (the current occupant of the item's rank, or nobody). This
// single rule covers the occupant grant, the cross-rank revoke, the
// departed-holder revoke and the zero-value slot revoke.
func (s *Service) reconcileCosmetics(ctx context.Context, b *board.Board, occupants map[int]string) []ActionResult {
	var results []ActionResult

	items, err := s.items.Find(ctx, &Item{BoardID: b.ID})
	if err != nil {
		results = append(results, s.result(b, 0, "", "list_items", "", err))
		return results
	}

	for _, item := range items {
		slot, ok := SlotForKind(item.Kind)
		if !ok {
			continue
		}
		desired := occupants[item.Rank]

		holders, err := s.HoldersOf(ctx, item.ID)
		if err != nil {
			results = append(results, s.result(b, item.Rank, "", "list_holders", item.ID, err))
			continue
		}

		for _, holder := range holders {
			if holder == desired {
				continue
			}
			if err := s.revokeAndUnequip(ctx, holder, item.ID, slot); err != nil {
				results = append(results, s.result(b, item.Rank, holder, "revoke", item.ID, err))
				continue
			}
			results = append(results, s.result(b, item.Rank, holder, "revoke", item.ID, nil))
		}

		if desired == "" {
			continue
		}

		fresh, err := s.Grant(ctx, desired, item.ID, 1)
		if err != nil {
			results = append(results, s.result(b, item.Rank, desired, "grant", item.ID, err))
			continue
		}
		if !fresh {
			continue
		}
		results = append(results, s.result(b, item.Rank, desired, "grant", item.ID, nil))

		if err := s.Equip(ctx, desired, item.ID, slot); err != nil {
			results = append(results, s.result(b, item.Rank, desired, "equip", item.ID, err))
			continue
		}
		results = append(results, s.result(b, item.Rank, desired, "equip", item.ID, nil))
	}

	return results
}

func (s *Service) revokeAndUnequip(ctx context.Context, memberID, itemID string, slot Slot) error {
	equipped, err := s.Equipped(ctx, memberID)
	if err != nil {
		return err
	}
	if equipped[slot] == itemID {
		if err := s.Unequip(ctx, memberID, slot); err != nil {
			return err
		}
	}
	return s.Revoke(ctx, memberID, itemID, 1)
}

// payPodium grants the configured currency or item reward to each current
// occupant, at most once per rank per calendar day. The daily bound is the
// intended granularity: tomorrow's recompute paying again is expected.
func (s *Service) payPodium(ctx context.Context, b *board.Board, occupants map[int]string) []ActionResult {
	kind, ok := payoutKind(b)
	if !ok {
		return nil
	}

	day := time.Now().Format("2006-01-02")
	var results []ActionResult

	for rank := 1; rank <= 3; rank++ {
		memberID, ok := occupants[rank]
		if !ok {
			continue
		}

		exists, err := s.ClaimExists(ctx, b.ID, rank, kind, b.RewardAmount, day, "")
		if err != nil {
			results = append(results, s.result(b, rank, memberID, "claim_check", "", err))
			continue
		}
		if exists {
			continue
		}

		reference := fmt.Sprintf("podium:%s:%d:%s", b.ID, rank, day)
		if err := s.payout(ctx, b, kind, memberID, reference); err != nil {
			results = append(results, s.result(b, rank, memberID, "payout", b.RewardItemRef, err))
			continue
		}
		results = append(results, s.result(b, rank, memberID, "payout", b.RewardItemRef, nil))

		if err := s.RecordClaim(ctx, b.ID, rank, kind, b.RewardAmount, day, ""); err != nil {
			results = append(results, s.result(b, rank, memberID, "claim_record", "", err))
		}
	}

	return results
}

// payGroupGoal pays every ranked contributor once per epoch after the goal
// has been achieved. The claim is recorded per member, after that member's
// payout succeeded, so a pass where some payouts failed leaves their claims
// unwritten and the next pass repairs exactly those members. Group-goal
// boards never also pay podium rewards; that would credit the same
// achievement twice.
func (s *Service) payGroupGoal(ctx context.Context, b *board.Board, ordered []standings.Row, goal *board.GoalState) []ActionResult {
	if goal == nil || goal.AchievedAt == nil || len(ordered) == 0 {
		return nil
	}
	kind, ok := payoutKind(b)
	if !ok {
		return nil
	}

	epoch := "genesis"
	if goal.LastResetAt != nil {
		epoch = goal.LastResetAt.UTC().Format(time.RFC3339)
	}

	var results []ActionResult
	for _, row := range ordered {
		exists, err := s.ClaimExists(ctx, b.ID, 0, kind, b.RewardAmount, epoch, row.MemberID)
		if err != nil {
			results = append(results, s.result(b, 0, row.MemberID, "claim_check", "", err))
			continue
		}
		if exists {
			continue
		}

		reference := fmt.Sprintf("goal:%s:%s:%s", b.ID, row.MemberID, epoch)
		if err := s.payout(ctx, b, kind, row.MemberID, reference); err != nil {
			results = append(results, s.result(b, 0, row.MemberID, "payout", b.RewardItemRef, err))
			continue
		}
		results = append(results, s.result(b, 0, row.MemberID, "payout", b.RewardItemRef, nil))

		if err := s.RecordClaim(ctx, b.ID, 0, kind, b.RewardAmount, epoch, row.MemberID); err != nil {
			results = append(results, s.result(b, 0, row.MemberID, "claim_record", "", err))
		}
	}
	return results
}

func (s *Service) payout(ctx context.Context, b *board.Board, kind Kind, memberID, reference string) error {
	switch kind {
	case KindCurrency:
		memo := fmt.Sprintf("reward for %s", b.Title)
		return s.Credit(ctx, memberID, b.RewardAmount, reference, memo)
	case KindItem:
		_, err := s.Grant(ctx, memberID, b.RewardItemRef, b.RewardAmount)
		return err
	}
	return nil
}

func payoutKind(b *board.Board) (Kind, bool) {
	switch b.RewardType {
	case board.RewardCurrency:
		if b.RewardAmount > 0 {
			return KindCurrency, true
		}
	case board.RewardItem:
		if b.RewardItemRef != "" && b.RewardAmount > 0 {
			return KindItem, true
		}
	}
	return "", false
}
