package db

import (
	"fmt"

	"gorm.io/gorm"

	catalog "github.com/yungbote/catalog-backend/internal/domain/catalog"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&catalog.PackageArch{},
		&catalog.Product{},
		&catalog.ProductChannel{},
		&catalog.ProductExtension{},
		&catalog.UpgradePath{},
		&catalog.RefreshRun{},
	); err != nil {
		return fmt.Errorf("automigrate catalog: %w", err)
	}

	// Base-product lookups scoped to a root anchor.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_product_extension_root_ext
		ON product_extension (root_product_id, extension_product_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_product_extension_root_ext: %w", err)
	}
	return nil
}
