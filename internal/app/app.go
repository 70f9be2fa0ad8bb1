package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	catalogdb "github.com/yungbote/catalog-backend/internal/data/db"
	"github.com/yungbote/catalog-backend/internal/data/repos"
	catalogHTTP "github.com/yungbote/catalog-backend/internal/http"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/refresh"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/snapshot"
	"github.com/yungbote/catalog-backend/internal/observability"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Store    *repos.Catalog
	Services Services
	Clients  Clients

	dbService *catalogdb.Service
	shutdown  func(context.Context) error
	cancel    context.CancelFunc
}

// New builds the application from the environment. withHTTP=false skips the
// router for command line use.
func New(ctx context.Context, withHTTP bool) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	shutdown := observability.InitOTel(ctx, log, cfg.Otel)

	dbs, err := catalogdb.NewService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init catalog db: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("catalog automigrate: %w", err)
	}
	theDB := dbs.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	store := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, store, clients)

	a := &App{
		Log:       log,
		DB:        theDB,
		Cfg:       cfg,
		Store:     store,
		Services:  serviceset,
		Clients:   clients,
		dbService: dbs,
		shutdown:  shutdown,
	}
	if withHTTP {
		a.Router = wireRouter(log, cfg, wireHandlers(log, cfg, theDB, serviceset))
	}
	return a, nil
}

// Start subscribes to catalog events and, when a snapshot path is configured,
// runs an initial refresh from it.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.Clients.Events.StartForwarder(ctx, func(ev bus.CatalogEvent) {
		a.Log.Info("Catalog event", "type", ev.Type, "run_id", ev.RunID, "source", ev.Source)
	}); err != nil {
		return fmt.Errorf("start event forwarder: %w", err)
	}

	if a.Cfg.SnapshotPath != "" {
		src := snapshot.NewFileSource(a.Cfg.SnapshotPath)
		if _, err := a.Services.Refresher.RefreshFromSource(ctx, src, refresh.Options{}); err != nil {
			a.Log.Error("Initial catalog refresh failed", "path", a.Cfg.SnapshotPath, "error", err)
		}
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Serving catalog API", "addr", a.Cfg.HTTPAddr)
	srv := &catalogHTTP.Server{Engine: a.Router}
	return srv.Run(ctx, a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.shutdown != nil {
		_ = a.shutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
