package board

import (
	"time"

	"gorm.io/datatypes"
)

// MetricType selects how a board scores its members.
type MetricType string

const (
	MetricCompletionRate MetricType = "completion_rate"
	MetricCompletedCount MetricType = "completed_count"
	MetricTotalWorkItems MetricType = "total_work_items"
	MetricTotalQuantity  MetricType = "total_quantity"
	MetricTotalTime      MetricType = "total_time"
	MetricPostCount      MetricType = "post_count"
	MetricDriverCount    MetricType = "driver_count"
	MetricNoLateMonth    MetricType = "no_late_month"
)

func (m MetricType) Valid() bool {
	switch m {
	case MetricCompletionRate, MetricCompletedCount, MetricTotalWorkItems,
		MetricTotalQuantity, MetricTotalTime, MetricPostCount,
		MetricDriverCount, MetricNoLateMonth:
		return true
	default:
		return false
	}
}

// RewardType selects the podium reward payout kind.
type RewardType string

const (
	RewardText     RewardType = "text"
	RewardCurrency RewardType = "currency"
	RewardItem     RewardType = "item"
)

// RankCosmetics holds the cosmetic references configured for one podium rank.
// NameEffect only applies to rank 1; the distributor enforces that.
type RankCosmetics struct {
	Title         string `json:"title,omitempty"`
	NameEffect    string `json:"name_effect,omitempty"`
	MessageEffect string `json:"message_effect,omitempty"`
	Decoration    string `json:"decoration,omitempty"`
}

// Board is one administrator-configured leaderboard panel.
type Board struct {
	ID             string     `gorm:"column:id;primaryKey"`
	Slug           string     `gorm:"column:slug;index"`
	Title          string     `gorm:"column:title"`
	MetricType     MetricType `gorm:"column:metric_type"`
	ActivityFilter string     `gorm:"column:activity_filter"`
	IsManual       bool       `gorm:"column:is_manual"`
	IsGroupGoal    bool       `gorm:"column:is_group_goal"`
	GroupGoalTarget float64   `gorm:"column:group_goal_target"`

	RewardType    RewardType `gorm:"column:reward_type"`
	RewardAmount  int64      `gorm:"column:reward_amount"`
	RewardItemRef string     `gorm:"column:reward_item_ref"`

	// Cosmetics holds per-rank cosmetic references for ranks 1-3.
	Cosmetics datatypes.JSONType[[]RankCosmetics] `gorm:"column:cosmetics"`

	// Group goal state. LastResetAt defines the current epoch; amounts
	// accrued before it do not count toward GoalProgress.
	GoalProgress    float64    `gorm:"column:goal_progress"`
	GoalAchievedAt  *time.Time `gorm:"column:goal_achieved_at"`
	GoalLastResetAt *time.Time `gorm:"column:goal_last_reset_at"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Board) TableName() string {
	return "boards"
}

// CosmeticsForRank returns the cosmetic set configured for rank 1-3, or the
// zero value when none is configured.
func (b *Board) CosmeticsForRank(rank int) RankCosmetics {
	ranks := b.Cosmetics.Data()
	if rank < 1 || rank > len(ranks) {
		return RankCosmetics{}
	}
	return ranks[rank-1]
}

// ManualEntry is an administrator-maintained ranking row. When a board has
// manual entries they are the sole source of ranking order.
type ManualEntry struct {
	ID             string    `gorm:"column:id;primaryKey"`
	BoardID        string    `gorm:"column:board_id;index"`
	Rank           int       `gorm:"column:rank"`
	Name           string    `gorm:"column:name"`
	Quantity       float64   `gorm:"column:quantity"`
	Duration       float64   `gorm:"column:duration"`
	PeriodQuantity float64   `gorm:"column:period_quantity"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (ManualEntry) TableName() string {
	return "manual_entries"
}

// Tombstone pins a deleted board id so stale replicated copies from other
// sessions cannot resurrect it. Written before the board row is removed.
type Tombstone struct {
	BoardID   string    `gorm:"column:board_id;primaryKey"`
	DeletedAt time.Time `gorm:"column:deleted_at"`
}

func (Tombstone) TableName() string {
	return "board_tombstones"
}
