package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/catalog-backend/internal/http/handlers"
	httpMW "github.com/yungbote/catalog-backend/internal/http/middleware"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	CatalogHandler *httpH.CatalogHandler
	AdminHandler   *httpH.AdminHandler
	AdminAuth      *httpMW.AdminAuth
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if h := cfg.CatalogHandler; h != nil {
		// Products
		api.GET("/products", h.ListProducts)
		api.GET("/products/find", h.FindProduct)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/products/:id/tree", h.ExtensionTree)
		api.GET("/products/:id/neighbors", h.Neighbors)
		api.GET("/extensions/recommended", h.RecommendedExtensions)

		// Channels
		api.POST("/channels/mandatory", h.MandatoryChannels)
		api.GET("/channels/:label", h.LookupChannel)

		api.GET("/refresh-runs", h.RefreshRuns)
	}

	if cfg.AdminHandler != nil && cfg.AdminAuth.Enabled() {
		admin := api.Group("/admin")
		admin.Use(cfg.AdminAuth.RequireAdmin())
		admin.POST("/refresh", cfg.AdminHandler.Refresh)
		admin.POST("/reset", cfg.AdminHandler.Reset)
	}

	return r
}
