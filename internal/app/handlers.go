package app

import (
	"context"

	"gorm.io/gorm"

	httpH "github.com/yungbote/catalog-backend/internal/http/handlers"
	httpMW "github.com/yungbote/catalog-backend/internal/http/middleware"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type Handlers struct {
	Catalog   *httpH.CatalogHandler
	Admin     *httpH.AdminHandler
	AdminAuth *httpMW.AdminAuth
	Health    *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, cfg Config, db *gorm.DB, svc Services) Handlers {
	log.Info("Wiring handlers...")
	ping := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return Handlers{
		Catalog:   httpH.NewCatalogHandler(log, svc.Catalog),
		Admin:     httpH.NewAdminHandler(log, svc.Catalog),
		AdminAuth: httpMW.NewAdminAuth(log, cfg.AdminToken),
		Health:    httpH.NewHealthHandler(ping),
	}
}
