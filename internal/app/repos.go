package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurogarden-backend/internal/data/repos"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type Repos struct {
	ContentItem repos.ContentItemRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		ContentItem: repos.NewContentItemRepo(db, log),
	}
}
