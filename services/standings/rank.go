package standings

import (
	"sort"

	"rankboard/services/board"
)

// Rank orders a board's members and returns the visible ranking plus the
// top-3 slice. Manual entries, when present, are the sole source of order;
// computed stats only rank when no manual entry exists for the board.
func Rank(b *board.Board, stats map[string]*MemberStat, entries []*board.ManualEntry) (ordered []Row, top3 []Row) {
	if len(entries) > 0 {
		ordered = rankManual(stats, entries)
	} else {
		ordered = rankComputed(b, stats)
	}

	for i := range ordered {
		ordered[i].Rank = i + 1
	}

	if len(ordered) > 3 {
		top3 = ordered[:3]
	} else {
		top3 = ordered
	}
	return ordered, top3
}

func rankManual(stats map[string]*MemberStat, entries []*board.ManualEntry) []Row {
	// Resolve admin-entered names against the directory so rewards land on
	// member ids; unmatched names keep the raw name as their id.
	nameToID := make(map[string]string, len(stats))
	for id, st := range stats {
		nameToID[st.DisplayName] = id
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		id, ok := nameToID[e.Name]
		if !ok {
			id = e.Name
		}
		rows = append(rows, Row{
			MemberID: id,
			Name:     e.Name,
			Value:    e.Quantity,
			Manual:   true,
		})
	}

	// Quantity descending; ties keep entry insertion order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Value > rows[j].Value
	})
	return rows
}

func rankComputed(b *board.Board, stats map[string]*MemberStat) []Row {
	rows := make([]Row, 0, len(stats))
	for _, st := range stats {
		v := st.MetricValue(b.MetricType)
		// Zero value means the member has not yet appeared on the board.
		if v == 0 {
			continue
		}
		rows = append(rows, Row{
			MemberID: st.MemberID,
			Name:     st.DisplayName,
			Value:    v,
		})
	}

	if b.MetricType == board.MetricNoLateMonth {
		// Membership is binary; order alphabetically instead of by value.
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].Name < rows[j].Name
		})
		return rows
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].MemberID < rows[j].MemberID
	})
	return rows
}
