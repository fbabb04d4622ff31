package activity

import (
	"context"

	"rankboard/pkg/repository"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Snapshot is one consistent read of every activity source, normalized into
// tagged-union records for the aggregator.
type Snapshot struct {
	Records []Record
}

// Reader pulls rows from the external activity stores. Read-only; the
// producing modules own these tables.
type Reader struct {
	db        *gorm.DB
	workItems repository.Repository[WorkItem]
	posts     repository.Repository[Post]
	runs      repository.Repository[DriverRun]
	lates     repository.Repository[LateRecord]
}

type ReaderParams struct {
	fx.In
	DB *gorm.DB
}

func NewReader(p ReaderParams) *Reader {
	return &Reader{
		db:        p.DB,
		workItems: repository.ProvideStore[WorkItem](p.DB),
		posts:     repository.ProvideStore[Post](p.DB),
		runs:      repository.ProvideStore[DriverRun](p.DB),
		lates:     repository.ProvideStore[LateRecord](p.DB),
	}
}

// Snapshot reads all sources. A failing source yields its records as absent
// rather than failing the snapshot; rankings degrade to best-effort.
func (r *Reader) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	var items []*WorkItem
	if err := r.db.WithContext(ctx).Preload("Shares").Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		snap.Records = append(snap.Records, Record{Kind: KindWorkItem, WorkItem: it})
	}

	posts, err := r.posts.Find(ctx, &Post{})
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		snap.Records = append(snap.Records, Record{Kind: KindPost, Post: p})
	}

	runs, err := r.runs.Find(ctx, &DriverRun{})
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		snap.Records = append(snap.Records, Record{Kind: KindDriverRun, DriverRun: run})
	}

	lates, err := r.lates.Find(ctx, &LateRecord{})
	if err != nil {
		return nil, err
	}
	for _, l := range lates {
		snap.Records = append(snap.Records, Record{Kind: KindLate, Late: l})
	}

	return snap, nil
}
