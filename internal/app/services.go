package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/data/aggregates"
	"github.com/yungbote/catalog-backend/internal/data/graph"
	"github.com/yungbote/catalog-backend/internal/data/repos"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/closure"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/identity"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/reconcile"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/refresh"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/services"
)

type Services struct {
	Resolver   *identity.Resolver
	Engine     *closure.Engine
	Reconciler *reconcile.Reconciler
	Refresher  *refresh.Runner
	Catalog    services.CatalogService
}

func wireServices(db *gorm.DB, log *logger.Logger, store *repos.Catalog, clients Clients) Services {
	log.Info("Wiring services...")

	tx := aggregates.NewGormTxRunner(db)
	resolver := identity.NewResolver(store.Arches, store.Products, log)
	engine := closure.NewEngine(store, log)
	reconciler := reconcile.NewReconciler(store, log)

	var project refresh.Projector
	if clients.Neo4j != nil {
		project = func(ctx context.Context, g graph.ProductGraph) error {
			return graph.SyncProductGraph(ctx, clients.Neo4j, log, g)
		}
	}
	refresher := refresh.NewRunner(tx, store, resolver, reconciler, clients.Events, project, log)

	return Services{
		Resolver:   resolver,
		Engine:     engine,
		Reconciler: reconciler,
		Refresher:  refresher,
		Catalog:    services.NewCatalogService(log, tx, store, resolver, engine, reconciler, refresher),
	}
}
