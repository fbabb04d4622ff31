package standings

import (
	"strings"
	"time"

	"rankboard/services/activity"
	"rankboard/services/board"
	"rankboard/services/member"
)

const dayLayout = "2006-01-02"

// Aggregate folds the activity snapshot into per-member stats for one board.
// Pure: no side effects, safe to re-run concurrently from any session.
//
// Seeding covers the whole directory plus any identity referenced only by
// activity or manual entries, so contributors missing from the directory
// snapshot still get a row keyed by their raw id. Administrators never get
// a row, whatever the metric.
func Aggregate(b *board.Board, snap *activity.Snapshot, roster []*member.Member, entries []*board.ManualEntry, now time.Time) map[string]*MemberStat {
	stats := make(map[string]*MemberStat)
	admins := make(map[string]bool)

	for _, m := range roster {
		if m.IsAdmin {
			admins[m.ID] = true
			continue
		}
		stats[m.ID] = newMemberStat(m.ID, m.DisplayName)
	}

	ensure := func(id string) *MemberStat {
		if id == "" || admins[id] {
			return nil
		}
		st, ok := stats[id]
		if !ok {
			st = newMemberStat(id, id)
			stats[id] = st
		}
		return st
	}

	// Manual entry names that resolve to a directory member reuse that
	// member's row; anything else gets a row keyed by the raw name.
	knownNames := make(map[string]bool, len(stats))
	for _, st := range stats {
		knownNames[st.DisplayName] = true
	}
	for _, e := range entries {
		if knownNames[e.Name] {
			continue
		}
		ensure(e.Name)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if snap == nil {
		return stats
	}

	for _, rec := range snap.Records {
		switch rec.Kind {
		case activity.KindWorkItem:
			item := rec.WorkItem
			if !matchesFilter(b.ActivityFilter, item.Category) {
				continue
			}
			// Past-dated schedule entries never change rankings.
			if item.Date.Before(today) {
				continue
			}
			creditWorkItem(ensure, item)

		case activity.KindPost:
			if st := ensure(rec.Post.Author); st != nil {
				st.PostCount++
			}

		case activity.KindDriverRun:
			run := rec.DriverRun
			st := ensure(run.Driver)
			if st == nil {
				continue
			}
			day := run.Date.Format(dayLayout)
			switch run.Direction {
			case activity.DirectionDeparture:
				st.departureDays[day] = struct{}{}
			case activity.DirectionReturn:
				st.returnDays[day] = struct{}{}
			}

		case activity.KindLate:
			late := rec.Late
			if late.Date.Year() == now.Year() && late.Date.Month() == now.Month() {
				if st := ensure(late.Member); st != nil {
					st.LateThisMonth++
				}
			}
		}
	}

	return stats
}

// creditWorkItem credits every participant of an item. Explicit shares carry
// each collaborator's own target/actual split; with collaborators but no
// shares the item is split evenly across owner and collaborators; a
// single-owner item credits only the owner.
func creditWorkItem(ensure func(string) *MemberStat, item *activity.WorkItem) {
	type credit struct {
		member         string
		target, actual float64
	}

	var credits []credit
	switch {
	case len(item.Shares) > 0:
		for _, sh := range item.Shares {
			credits = append(credits, credit{sh.Member, sh.Target, sh.Actual})
		}
	case len(item.CollaboratorIDs()) > 0:
		people := append([]string{item.Owner}, item.CollaboratorIDs()...)
		n := float64(len(people))
		for _, p := range people {
			credits = append(credits, credit{p, item.Target / n, item.Actual / n})
		}
	default:
		credits = []credit{{item.Owner, item.Target, item.Actual}}
	}

	day := item.Date.Format(dayLayout)
	for _, c := range credits {
		st := ensure(c.member)
		if st == nil {
			continue
		}
		st.WorkItems++
		st.TargetSum += c.target
		st.ActualSum += c.actual
		st.Quantity += c.actual
		if c.target > 0 && c.actual >= c.target {
			st.Completed++
		}
		st.workDays[day] = struct{}{}
	}
}

// matchesFilter implements the comma-keyword filter: a record matches when
// any keyword is a substring of its category or vice versa. Matching is
// case-sensitive. An empty filter matches everything.
func matchesFilter(filter, category string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	for _, kw := range strings.Split(filter, ",") {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(category, kw) || strings.Contains(kw, category) {
			return true
		}
	}
	return false
}
