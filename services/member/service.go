package member

import (
	"context"
	"time"

	"rankboard/pkg/db/option"
	"rankboard/pkg/db/pagination"
	"rankboard/pkg/errutil"
	"rankboard/pkg/repository"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Service is a read-only accessor over the member directory.
type Service struct {
	members repository.Repository[Member]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		members: repository.ProvideStore[Member](p.DB),
	}
}

// List returns every directory row, administrators included. Callers that
// aggregate rankings filter admins themselves.
func (s *Service) List(ctx context.Context) ([]*Member, error) {
	return s.members.Find(ctx, &Member{})
}

// ListPage returns one page of the directory ordered by creation time, with
// an opaque cursor for the next page.
func (s *Service) ListPage(ctx context.Context, p pagination.Pagination) ([]*Member, *pagination.PageInfo, error) {
	if p.Limit <= 0 {
		p.Limit = 50
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "asc",
			Allow:   map[string]bool{"created_at": true},
		}),
		option.WithLimit(p.Limit + 1),
	}

	if p.Cursor != "" {
		cursor, err := pagination.DecodeCursor(p.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.GT,
			Value:    cursor.CreatedAt,
		}))
	}

	rows, err := s.members.Find(ctx, &Member{}, opts...)
	if err != nil {
		return nil, nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(rows, p.Limit, func(m *Member) string {
		c, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
			ID:        m.ID,
		})
		return c
	})

	if len(rows) > p.Limit {
		rows = rows[:p.Limit]
	}
	return rows, pageInfo, nil
}

// Get returns the member with the given id, or nil when the directory has no
// such row.
func (s *Service) Get(ctx context.Context, id string) (*Member, error) {
	return s.members.FindOne(ctx, &Member{ID: id})
}
