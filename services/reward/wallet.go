package reward

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"rankboard/pkg/db/option"
	"rankboard/pkg/errutil"
)

// Credit appends a CREDIT entry to the member's wallet chain and bumps the
// running balance. A reference id that already exists in the ledger makes the
// whole call a no-op, so repeated distributor passes crediting the same
// payout converge on a single entry.
func (s *Service) Credit(ctx context.Context, memberID string, amount int64, referenceID, memo string) error {
	if amount <= 0 {
		return errutil.BadRequest("amount must be > 0 for CREDIT", nil)
	}

	if exist, err := s.wallet.FindOne(ctx, &WalletEntry{ReferenceID: referenceID}); err != nil {
		return err
	} else if exist != nil {
		zap.L().Debug("wallet reference already credited",
			zap.String("member_id", memberID),
			zap.String("reference_id", referenceID))
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.Scopes(option.LockingUpdate)
		return s.appendEntry(ctx, tx, &WalletEntry{
			ID:          s.node.Generate().String(),
			MemberID:    memberID,
			Type:        EntryCredit,
			Amount:      amount,
			ReferenceID: referenceID,
			Description: memo,
			Metadata:    datatypes.JSON([]byte(`{}`)),
		})
	})
}

// Debit appends a DEBIT entry when the member's balance covers the amount.
func (s *Service) Debit(ctx context.Context, memberID string, amount int64, referenceID, memo string) error {
	if amount <= 0 {
		return errutil.BadRequest("amount must be > 0 for DEBIT", nil)
	}

	if exist, err := s.wallet.FindOne(ctx, &WalletEntry{ReferenceID: referenceID}); err != nil {
		return err
	} else if exist != nil {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.Scopes(option.LockingUpdate)

		balance, err := s.balances.WithTrx(tx).FindOne(ctx, &Balance{MemberID: memberID})
		if err != nil {
			return err
		}
		if balance == nil || balance.Balance < amount {
			return fmt.Errorf("insufficient balance")
		}

		return s.appendEntry(ctx, tx, &WalletEntry{
			ID:          s.node.Generate().String(),
			MemberID:    memberID,
			Type:        EntryDebit,
			Amount:      amount,
			ReferenceID: referenceID,
			Description: memo,
			Metadata:    datatypes.JSON([]byte(`{}`)),
		})
	})
}

// Balance returns the member's current wallet balance, zero when the member
// has no wallet rows yet.
func (s *Service) WalletBalance(ctx context.Context, memberID string) (int64, error) {
	balance, err := s.balances.FindOne(ctx, &Balance{MemberID: memberID})
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return balance.Balance, nil
}

// WalletEntries returns the member's ledger rows in chain order.
func (s *Service) WalletEntries(ctx context.Context, memberID string) ([]*WalletEntry, error) {
	return s.wallet.Find(ctx, &WalletEntry{MemberID: memberID}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "created_at",
		OrderBy: "asc",
		Allow:   map[string]bool{"created_at": true},
	}))
}

// VerifyChain recomputes every hash in the member's wallet chain and reports
// whether the stored chain is intact.
func (s *Service) VerifyChain(ctx context.Context, memberID string) (bool, error) {
	entries, err := s.WalletEntries(ctx, memberID)
	if err != nil {
		return false, err
	}

	lastHash := "GENESIS"
	for _, entry := range entries {
		if entry.Hash != entry.GenerateHash() || entry.PreviousHash != lastHash {
			return false, nil
		}
		lastHash = entry.Hash
	}
	return true, nil
}

func (s *Service) appendEntry(ctx context.Context, tx *gorm.DB, entry *WalletEntry) error {
	walletTx := s.wallet.WithTrx(tx)
	balanceTx := s.balances.WithTrx(tx)

	lastEntry, err := walletTx.FindOne(ctx, &WalletEntry{MemberID: entry.MemberID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
		option.WithLockingUpdate(),
	)
	if err != nil {
		return err
	}

	entry.PreviousHash = "GENESIS"
	if lastEntry != nil {
		entry.PreviousHash = lastEntry.Hash
	}
	entry.CreatedAt = time.Now()
	entry.Hash = entry.GenerateHash()

	if err := walletTx.Create(ctx, entry); err != nil {
		return err
	}

	delta := entry.Amount
	if entry.Type == EntryDebit {
		delta = -entry.Amount
	}

	balance, err := balanceTx.FindOne(ctx, &Balance{MemberID: entry.MemberID})
	if err != nil {
		return err
	}
	if balance == nil {
		return balanceTx.Create(ctx, &Balance{
			ID:        s.node.Generate().String(),
			MemberID:  entry.MemberID,
			Balance:   delta,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	}

	updates := map[string]any{
		"balance":    gorm.Expr("balance + ?", delta),
		"updated_at": time.Now(),
	}
	return balanceTx.Update(ctx, balance.ID, &updates)
}
