package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/data/repos"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

func wireRepos(db *gorm.DB, log *logger.Logger) *repos.Catalog {
	log.Info("Wiring repos...")
	return repos.NewCatalog(db, log)
}
