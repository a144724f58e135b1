package domain

import "github.com/yungbote/neurogarden-backend/internal/domain/content"

type ContentItem = content.Item
type ContentKind = content.Kind
type ContentField = content.Field
type ReviewState = content.ReviewState

const (
	ContentKindPost    = content.KindPost
	ContentKindNote    = content.KindNote
	ContentKindProject = content.KindProject
)

// AutoMigrateModels lists every persisted model.
func AutoMigrateModels() []any {
	return []any{
		&content.Item{},
	}
}
