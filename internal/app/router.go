package app

import (
	"github.com/gin-gonic/gin"

	catalogHTTP "github.com/yungbote/catalog-backend/internal/http"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return catalogHTTP.NewRouter(catalogHTTP.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		CatalogHandler: handlers.Catalog,
		AdminHandler:   handlers.Admin,
		AdminAuth:      handlers.AdminAuth,
		HealthHandler:  handlers.Health,
	})
}
