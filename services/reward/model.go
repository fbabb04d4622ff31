package reward

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Kind identifies what a reward record represents. Cosmetic kinds map onto
// equip slots; currency and item are paid out through the wallet and
// inventory instead.
type Kind string

const (
	KindTitle         Kind = "title"
	KindNameEffect    Kind = "name_effect"
	KindMessageEffect Kind = "message_effect"
	KindDecoration    Kind = "decoration"
	KindCurrency      Kind = "currency"
	KindItem          Kind = "item"
)

// CosmeticKinds are the kinds distributed to podium occupants as equippable
// items, in grant order.
var CosmeticKinds = []Kind{KindTitle, KindNameEffect, KindMessageEffect, KindDecoration}

// Slot is an equip position. One item of the matching kind may be equipped
// per slot per member.
type Slot string

const (
	SlotTitle         Slot = "title"
	SlotNameEffect    Slot = "name_effect"
	SlotMessageEffect Slot = "message_effect"
	SlotDecoration    Slot = "decoration"
)

// SlotForKind maps a cosmetic kind onto its equip slot. Currency and item
// kinds have no slot.
func SlotForKind(k Kind) (Slot, bool) {
	switch k {
	case KindTitle:
		return SlotTitle, true
	case KindNameEffect:
		return SlotNameEffect, true
	case KindMessageEffect:
		return SlotMessageEffect, true
	case KindDecoration:
		return SlotDecoration, true
	}
	return "", false
}

// Item is a materialized reward definition. Its id is derived, never
// generated, so every session materializes the same row for the same
// board/kind/rank. Label carries the display text or style reference and may
// be updated in place without changing identity.
type Item struct {
	ID        string    `gorm:"column:id;primaryKey"`
	BoardID   string    `gorm:"column:board_id;index"`
	Kind      Kind      `gorm:"column:kind"`
	Rank      int       `gorm:"column:rank"`
	Label     string    `gorm:"column:label"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Item) TableName() string {
	return "reward_items"
}

// Holding is one member's inventory row for one item.
type Holding struct {
	ID        string    `gorm:"column:id;primaryKey"`
	MemberID  string    `gorm:"column:member_id;index"`
	ItemID    string    `gorm:"column:item_id;index"`
	Quantity  int64     `gorm:"column:quantity"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Holding) TableName() string {
	return "inventory_holdings"
}

// Equipment is one member's equipped item in one slot.
type Equipment struct {
	ID        string    `gorm:"column:id;primaryKey"`
	MemberID  string    `gorm:"column:member_id;index"`
	Slot      Slot      `gorm:"column:slot"`
	ItemID    string    `gorm:"column:item_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Equipment) TableName() string {
	return "equipment"
}

// Claim is one idempotence ledger row. Presence of a claim for a key means
// the payout already happened and must not repeat within the period. Podium
// claims leave MemberID empty (the key is the rank, whoever occupies it);
// group-goal claims carry the paid member so a failed payout can be retried
// without repeating the successful ones. Claims are only ever written by the
// distributor and only removed by an explicit administrative reset.
type Claim struct {
	ID        string    `gorm:"column:id;primaryKey"`
	BoardID   string    `gorm:"column:board_id;index;uniqueIndex:idx_claim_key"`
	Rank      int       `gorm:"column:rank;uniqueIndex:idx_claim_key"`
	Kind      Kind      `gorm:"column:kind;uniqueIndex:idx_claim_key"`
	Amount    int64     `gorm:"column:amount;uniqueIndex:idx_claim_key"`
	Period    string    `gorm:"column:period;index;uniqueIndex:idx_claim_key"`
	MemberID  string    `gorm:"column:member_id;uniqueIndex:idx_claim_key"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Claim) TableName() string {
	return "reward_claims"
}

// WalletEntry is one hash-chained row of the currency ledger. Entries for a
// member form a chain through PreviousHash; ReferenceID makes writes
// idempotent.
type WalletEntry struct {
	ID           string         `gorm:"column:id;primaryKey"`
	MemberID     string         `gorm:"column:member_id;index"`
	Type         string         `gorm:"column:type"`
	Amount       int64          `gorm:"column:amount"`
	ReferenceID  string         `gorm:"column:reference_id;index"`
	Description  string         `gorm:"column:description"`
	PreviousHash string         `gorm:"column:previous_hash"`
	Hash         string         `gorm:"column:hash"`
	Metadata     datatypes.JSON `gorm:"column:metadata"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
}

func (WalletEntry) TableName() string {
	return "wallet_entries"
}

const (
	EntryCredit = "CREDIT"
	EntryDebit  = "DEBIT"
)

func (e *WalletEntry) HashFields() map[string]string {
	return map[string]string{
		"id":            e.ID,
		"member_id":     e.MemberID,
		"type":          e.Type,
		"amount":        fmt.Sprintf("%d", e.Amount),
		"reference_id":  e.ReferenceID,
		"description":   e.Description,
		"created_at":    e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"previous_hash": e.PreviousHash,
	}
}

func (e *WalletEntry) GenerateHash() string {
	fields := e.HashFields()
	var keys []string
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}

	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}

// Balance is the running per-member wallet balance.
type Balance struct {
	ID        string    `gorm:"column:id;primaryKey"`
	MemberID  string    `gorm:"column:member_id;uniqueIndex"`
	Balance   int64     `gorm:"column:balance"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Balance) TableName() string {
	return "wallet_balances"
}
