package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurogarden-backend/internal/data/repos/content"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type ContentItemRepo = content.ItemRepo
type ContentListFilter = content.ListFilter

func NewContentItemRepo(db *gorm.DB, log *logger.Logger) ContentItemRepo {
	return content.NewItemRepo(db, log)
}
