package retention

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurogarden-backend/internal/data/repos"
	"github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/platform/dbctx"
)

// Store is the engine's view of ContentItem persistence. Writes are per field so that
// each enrichment stage persists independently.
type Store interface {
	Load(ctx context.Context, id uuid.UUID) (*content.Item, error)
	SaveField(ctx context.Context, id uuid.UUID, field content.Field, value any) error
	SaveReview(ctx context.Context, id uuid.UUID, rs content.ReviewState) error
}

type repoStore struct {
	items repos.ContentItemRepo
}

func NewRepoStore(items repos.ContentItemRepo) Store {
	return &repoStore{items: items}
}

func (s *repoStore) Load(ctx context.Context, id uuid.UUID) (*content.Item, error) {
	it, err := s.items.GetByID(dbctx.Of(ctx), id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return it, nil
}

func (s *repoStore) SaveField(ctx context.Context, id uuid.UUID, field content.Field, value any) error {
	return notFound(id, s.items.SaveField(dbctx.Of(ctx), id, field, value))
}

func (s *repoStore) SaveReview(ctx context.Context, id uuid.UUID, rs content.ReviewState) error {
	return notFound(id, s.items.SaveReview(dbctx.Of(ctx), id, rs))
}

func notFound(id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}
