package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/data/repos/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type PackageArchRepo = catalog.PackageArchRepo
type ProductRepo = catalog.ProductRepo
type ProductChannelRepo = catalog.ProductChannelRepo
type ProductExtensionRepo = catalog.ProductExtensionRepo
type UpgradePathRepo = catalog.UpgradePathRepo
type RefreshRunRepo = catalog.RefreshRunRepo

type IdentQuery = catalog.IdentQuery

func NewPackageArchRepo(db *gorm.DB, baseLog *logger.Logger) PackageArchRepo {
	return catalog.NewPackageArchRepo(db, baseLog)
}
func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return catalog.NewProductRepo(db, baseLog)
}
func NewProductChannelRepo(db *gorm.DB, baseLog *logger.Logger) ProductChannelRepo {
	return catalog.NewProductChannelRepo(db, baseLog)
}
func NewProductExtensionRepo(db *gorm.DB, baseLog *logger.Logger) ProductExtensionRepo {
	return catalog.NewProductExtensionRepo(db, baseLog)
}
func NewUpgradePathRepo(db *gorm.DB, baseLog *logger.Logger) UpgradePathRepo {
	return catalog.NewUpgradePathRepo(db, baseLog)
}
func NewRefreshRunRepo(db *gorm.DB, baseLog *logger.Logger) RefreshRunRepo {
	return catalog.NewRefreshRunRepo(db, baseLog)
}

// Catalog groups the repositories backing the product catalog store.
type Catalog struct {
	Arches     PackageArchRepo
	Products   ProductRepo
	Channels   ProductChannelRepo
	Extensions ProductExtensionRepo
	Upgrades   UpgradePathRepo
	Runs       RefreshRunRepo
}

func NewCatalog(db *gorm.DB, baseLog *logger.Logger) *Catalog {
	return &Catalog{
		Arches:     NewPackageArchRepo(db, baseLog),
		Products:   NewProductRepo(db, baseLog),
		Channels:   NewProductChannelRepo(db, baseLog),
		Extensions: NewProductExtensionRepo(db, baseLog),
		Upgrades:   NewUpgradePathRepo(db, baseLog),
		Runs:       NewRefreshRunRepo(db, baseLog),
	}
}
