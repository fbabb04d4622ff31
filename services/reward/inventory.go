package reward

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Grant adds qty of an item to the member's inventory, creating the holding
// row on first grant. Returns true when the member did not hold the item
// before this call.
func (s *Service) Grant(ctx context.Context, memberID, itemID string, qty int64) (bool, error) {
	holding, err := s.holdings.FindOne(ctx, &Holding{MemberID: memberID, ItemID: itemID})
	if err != nil {
		return false, err
	}

	if holding == nil {
		err := s.holdings.Create(ctx, &Holding{
			ID:        s.node.Generate().String(),
			MemberID:  memberID,
			ItemID:    itemID,
			Quantity:  qty,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		return err == nil, err
	}

	updates := map[string]any{
		"quantity":   gorm.Expr("quantity + ?", qty),
		"updated_at": time.Now(),
	}
	return false, s.holdings.Update(ctx, holding.ID, &updates)
}

// Revoke removes up to qty of an item from the member's inventory. Revoking
// an item the member does not hold is a no-op, which keeps repeated
// distributor passes safe. The row is deleted when the quantity reaches zero.
func (s *Service) Revoke(ctx context.Context, memberID, itemID string, qty int64) error {
	holding, err := s.holdings.FindOne(ctx, &Holding{MemberID: memberID, ItemID: itemID})
	if err != nil {
		return err
	}
	if holding == nil {
		return nil
	}

	if holding.Quantity <= qty {
		return s.holdings.Delete(ctx, &Holding{ID: holding.ID})
	}

	updates := map[string]any{
		"quantity":   gorm.Expr("quantity - ?", qty),
		"updated_at": time.Now(),
	}
	return s.holdings.Update(ctx, holding.ID, &updates)
}

// Holdings returns every inventory row for the member.
func (s *Service) Holdings(ctx context.Context, memberID string) ([]*Holding, error) {
	return s.holdings.Find(ctx, &Holding{MemberID: memberID})
}

// Holds reports whether the member currently holds the item.
func (s *Service) Holds(ctx context.Context, memberID, itemID string) (bool, error) {
	holding, err := s.holdings.FindOne(ctx, &Holding{MemberID: memberID, ItemID: itemID})
	if err != nil {
		return false, err
	}
	return holding != nil, nil
}

// HoldersOf returns the ids of every member currently holding the item.
func (s *Service) HoldersOf(ctx context.Context, itemID string) ([]string, error) {
	holdings, err := s.holdings.Find(ctx, &Holding{ItemID: itemID})
	if err != nil {
		return nil, err
	}

	members := make([]string, 0, len(holdings))
	for _, h := range holdings {
		members = append(members, h.MemberID)
	}
	return members, nil
}
