package activity

import (
	"strings"
	"time"
)

// Direction of a driver run.
const (
	DirectionDeparture = "departure"
	DirectionReturn    = "return"
)

// WorkItem is a scheduled work record produced by the scheduling module.
// When Shares is empty the whole target/actual belongs to the owner;
// otherwise each share carries one collaborator's individual split.
type WorkItem struct {
	ID            string          `gorm:"column:id;primaryKey"`
	Owner         string          `gorm:"column:owner;index"`
	Category      string          `gorm:"column:category"`
	Target        float64         `gorm:"column:target"`
	Actual        float64         `gorm:"column:actual"`
	Date          time.Time       `gorm:"column:date;index"`
	Collaborators string          `gorm:"column:collaborators"`
	Shares        []WorkItemShare `gorm:"foreignKey:WorkItemID"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
}

func (WorkItem) TableName() string {
	return "work_items"
}

// CollaboratorIDs splits the comma-joined collaborator column.
func (w *WorkItem) CollaboratorIDs() []string {
	if strings.TrimSpace(w.Collaborators) == "" {
		return nil
	}
	parts := strings.Split(w.Collaborators, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WorkItemShare is one collaborator's slice of a shared work item.
type WorkItemShare struct {
	ID         string  `gorm:"column:id;primaryKey"`
	WorkItemID string  `gorm:"column:work_item_id;index"`
	Member     string  `gorm:"column:member;index"`
	Target     float64 `gorm:"column:target"`
	Actual     float64 `gorm:"column:actual"`
}

func (WorkItemShare) TableName() string {
	return "work_item_shares"
}

// Post is a message/post record produced by the messaging module.
type Post struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Author    string    `gorm:"column:author;index"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (Post) TableName() string {
	return "posts"
}

// DriverRun is one driver assignment for a given date and direction.
type DriverRun struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Driver    string    `gorm:"column:driver;index"`
	Date      time.Time `gorm:"column:date;index"`
	Direction string    `gorm:"column:direction"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (DriverRun) TableName() string {
	return "driver_runs"
}

// LateRecord marks a member late on a given date. Feeds the
// no-late-this-month board.
type LateRecord struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Member    string    `gorm:"column:member;index"`
	Date      time.Time `gorm:"column:date;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (LateRecord) TableName() string {
	return "late_records"
}

// RecordKind tags the variants of Record.
type RecordKind string

const (
	KindWorkItem  RecordKind = "work_item"
	KindPost      RecordKind = "post"
	KindDriverRun RecordKind = "driver_run"
	KindLate      RecordKind = "late"
)

// Record is the normalized tagged union the aggregator consumes, regardless
// of which external module produced the underlying row. Exactly one pointer
// is set, matching Kind.
type Record struct {
	Kind      RecordKind
	WorkItem  *WorkItem
	Post      *Post
	DriverRun *DriverRun
	Late      *LateRecord
}

// Subjects returns every member id this record credits or references.
func (r Record) Subjects() []string {
	switch r.Kind {
	case KindWorkItem:
		if len(r.WorkItem.Shares) > 0 {
			out := make([]string, 0, len(r.WorkItem.Shares))
			for _, s := range r.WorkItem.Shares {
				out = append(out, s.Member)
			}
			return out
		}
		if ids := r.WorkItem.CollaboratorIDs(); len(ids) > 0 {
			return append([]string{r.WorkItem.Owner}, ids...)
		}
		return []string{r.WorkItem.Owner}
	case KindPost:
		return []string{r.Post.Author}
	case KindDriverRun:
		return []string{r.DriverRun.Driver}
	case KindLate:
		return []string{r.Late.Member}
	}
	return nil
}
