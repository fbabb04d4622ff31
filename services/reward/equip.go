package reward

import (
	"context"
	"time"
)

// Equip puts the item into the member's slot, replacing whatever was
// equipped there. Equipping the already-equipped item is a no-op.
func (s *Service) Equip(ctx context.Context, memberID, itemID string, slot Slot) error {
	current, err := s.equips.FindOne(ctx, &Equipment{MemberID: memberID, Slot: slot})
	if err != nil {
		return err
	}

	if current == nil {
		return s.equips.Create(ctx, &Equipment{
			ID:        s.node.Generate().String(),
			MemberID:  memberID,
			Slot:      slot,
			ItemID:    itemID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	}

	if current.ItemID == itemID {
		return nil
	}
	return s.equips.Update(ctx, current.ID, &Equipment{ItemID: itemID, UpdatedAt: time.Now()})
}

// Unequip clears the member's slot. Clearing an empty slot is a no-op.
func (s *Service) Unequip(ctx context.Context, memberID string, slot Slot) error {
	return s.equips.Delete(ctx, &Equipment{MemberID: memberID, Slot: slot})
}

// Equipped returns the member's current equip state keyed by slot.
func (s *Service) Equipped(ctx context.Context, memberID string) (map[Slot]string, error) {
	rows, err := s.equips.Find(ctx, &Equipment{MemberID: memberID})
	if err != nil {
		return nil, err
	}

	out := make(map[Slot]string, len(rows))
	for _, row := range rows {
		out[row.Slot] = row.ItemID
	}
	return out, nil
}
