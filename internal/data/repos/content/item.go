package content

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/platform/dbctx"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type ListFilter struct {
	Kind  types.Kind
	Limit int
}

type ItemRepo interface {
	Create(dbc dbctx.Context, rows []*types.Item) ([]*types.Item, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Item, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Item, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*types.Item, error)

	// SaveField writes a single enrichment column. It returns gorm.ErrRecordNotFound
	// (wrapped) when no row has the id.
	SaveField(dbc dbctx.Context, id uuid.UUID, field types.Field, value any) error
	SaveReview(dbc dbctx.Context, id uuid.UUID, rs types.ReviewState) error
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: baseLog.With("repo", "ContentItemRepo")}
}

func (r *itemRepo) Create(dbc dbctx.Context, rows []*types.Item) ([]*types.Item, error) {
	if len(rows) == 0 {
		return []*types.Item{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *itemRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Item, error) {
	var out []*types.Item
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Item, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *itemRepo) List(dbc dbctx.Context, filter ListFilter) ([]*types.Item, error) {
	q := dbc.DB(r.db).Model(&types.Item{})
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var out []*types.Item
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itemRepo) SaveField(dbc dbctx.Context, id uuid.UUID, field types.Field, value any) error {
	switch field {
	case types.FieldSummary, types.FieldStudyChunks, types.FieldMnemonics, types.FieldRecallQuestions:
	default:
		return fmt.Errorf("content item field %q is not writable", field)
	}
	res := dbc.DB(r.db).
		Model(&types.Item{}).
		Where("id = ?", id).
		Updates(map[string]any{
			string(field): value,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("content item %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *itemRepo) SaveReview(dbc dbctx.Context, id uuid.UUID, rs types.ReviewState) error {
	res := dbc.DB(r.db).
		Model(&types.Item{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"review_stage":     rs.Stage,
			"review_interval":  rs.Interval,
			"last_reviewed_at": rs.LastReviewedAt,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("content item %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
