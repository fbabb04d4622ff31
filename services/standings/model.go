package standings

import (
	"time"

	"rankboard/services/board"
)

// MemberStat accumulates one member's activity for a single aggregation
// pass. It is never persisted; every recompute derives it from scratch.
type MemberStat struct {
	MemberID    string
	DisplayName string

	WorkItems int
	Completed int
	TargetSum float64
	ActualSum float64
	Quantity  float64
	TotalTime float64
	PostCount int

	LateThisMonth int

	departureDays map[string]struct{}
	returnDays    map[string]struct{}
	workDays      map[string]struct{}
}

func newMemberStat(id, name string) *MemberStat {
	return &MemberStat{
		MemberID:      id,
		DisplayName:   name,
		departureDays: make(map[string]struct{}),
		returnDays:    make(map[string]struct{}),
		workDays:      make(map[string]struct{}),
	}
}

// CompletionRate is the percentage of target work actually done.
func (s *MemberStat) CompletionRate() float64 {
	if s.TargetSum <= 0 {
		return 0
	}
	return s.ActualSum / s.TargetSum * 100
}

func (s *MemberStat) DepartureCount() int { return len(s.departureDays) }
func (s *MemberStat) ReturnCount() int    { return len(s.returnDays) }

// DriverCount sums departure and return day counts; the two directions are
// deduplicated independently.
func (s *MemberStat) DriverCount() int {
	return len(s.departureDays) + len(s.returnDays)
}

func (s *MemberStat) WorkDayCount() int { return len(s.workDays) }

// MetricValue resolves the stat's numeric value under a board metric.
func (s *MemberStat) MetricValue(metric board.MetricType) float64 {
	switch metric {
	case board.MetricCompletionRate:
		return s.CompletionRate()
	case board.MetricCompletedCount:
		return float64(s.Completed)
	case board.MetricTotalWorkItems:
		return float64(s.WorkItems)
	case board.MetricTotalQuantity:
		return s.Quantity
	case board.MetricTotalTime:
		return s.TotalTime
	case board.MetricPostCount:
		return float64(s.PostCount)
	case board.MetricDriverCount:
		return float64(s.DriverCount())
	case board.MetricNoLateMonth:
		if s.LateThisMonth == 0 {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Row is one visible ranking position.
type Row struct {
	Rank     int     `json:"rank"`
	MemberID string  `json:"member_id"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Manual   bool    `json:"manual"`
}

// Snapshot is the computed standings of one board, cached for display.
type Snapshot struct {
	BoardID    string           `json:"board_id"`
	Rows       []Row            `json:"rows"`
	Top3       []Row            `json:"top3"`
	Goal       *board.GoalState `json:"goal,omitempty"`
	ComputedAt time.Time        `json:"computed_at"`
}
