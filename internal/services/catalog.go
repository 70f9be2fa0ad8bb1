package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/catalog-backend/internal/data/aggregates"
	"github.com/yungbote/catalog-backend/internal/data/repos"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/closure"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/identity"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/reconcile"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/refresh"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/snapshot"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

// ProductNeighbors lists the products directly connected to one product.
type ProductNeighbors struct {
	Product        *types.Product   `json:"product"`
	Roots          []*types.Product `json:"roots"`
	Bases          []*types.Product `json:"bases"`
	Extensions     []*types.Product `json:"extensions"`
	UpgradeTargets []*types.Product `json:"upgrade_targets"`
	UpgradeSources []*types.Product `json:"upgrade_sources"`
}

type CatalogService interface {
	// GET
	ListProducts(ctx context.Context) ([]*types.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, bool, error)
	GetProductByExternalID(ctx context.Context, externalID int64) (*types.Product, bool, error)
	FindProduct(ctx context.Context, ident types.ProductIdent, imprecise bool) (*types.Product, bool, error)
	LookupChannel(ctx context.Context, label string, externalProductID int64) (*types.ProductChannel, bool, error)
	ExtensionTree(ctx context.Context, externalID int64) (*closure.TreeNode, bool, error)
	Neighbors(ctx context.Context, externalID int64) (*ProductNeighbors, bool, error)
	RecommendedExtensions(ctx context.Context) ([]*types.ProductExtension, error)
	MandatoryChannels(ctx context.Context, labels []string) (map[string][]string, error)
	RefreshRuns(ctx context.Context, limit int) ([]*types.RefreshRun, error)
	// WRITE
	Refresh(ctx context.Context, src snapshot.Source, opts refresh.Options) (*refresh.Report, error)
	RemoveAllExcept(ctx context.Context, keepExternalIDs []int64) (int, error)
}

type catalogService struct {
	log        *logger.Logger
	tx         aggregates.TxRunner
	store      *repos.Catalog
	resolver   *identity.Resolver
	engine     *closure.Engine
	reconciler *reconcile.Reconciler
	refresher  *refresh.Runner
}

func NewCatalogService(
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	store *repos.Catalog,
	resolver *identity.Resolver,
	engine *closure.Engine,
	reconciler *reconcile.Reconciler,
	refresher *refresh.Runner,
) CatalogService {
	return &catalogService{
		log:        baseLog.With("service", "CatalogService"),
		tx:         tx,
		store:      store,
		resolver:   resolver,
		engine:     engine,
		reconciler: reconciler,
		refresher:  refresher,
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]*types.Product, error) {
	out, err := s.store.Products.All(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, aggregates.MapError("services.ListProducts", err)
	}
	return out, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, bool, error) {
	p, ok, err := s.store.Products.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, false, aggregates.MapError("services.GetProduct", err)
	}
	return p, ok, nil
}

func (s *catalogService) GetProductByExternalID(ctx context.Context, externalID int64) (*types.Product, bool, error) {
	p, ok, err := s.store.Products.GetByExternalID(dbctx.Context{Ctx: ctx}, externalID)
	if err != nil {
		return nil, false, aggregates.MapError("services.GetProductByExternalID", err)
	}
	return p, ok, nil
}

func (s *catalogService) FindProduct(ctx context.Context, ident types.ProductIdent, imprecise bool) (*types.Product, bool, error) {
	return s.resolver.FindProduct(dbctx.Context{Ctx: ctx}, ident, imprecise)
}

func (s *catalogService) LookupChannel(ctx context.Context, label string, externalProductID int64) (*types.ProductChannel, bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, false, types.Validation("services.LookupChannel", "channel label is required")
	}
	c, ok, err := s.store.Channels.Lookup(dbctx.Context{Ctx: ctx}, label, externalProductID)
	if err != nil {
		return nil, false, aggregates.MapError("services.LookupChannel", err)
	}
	return c, ok, nil
}

func (s *catalogService) ExtensionTree(ctx context.Context, externalID int64) (*closure.TreeNode, bool, error) {
	dbc := dbctx.Context{Ctx: ctx}
	root, ok, err := s.GetProductByExternalID(ctx, externalID)
	if err != nil || !ok {
		return nil, false, err
	}
	return s.engine.ExtensionTree(dbc, root.ID)
}

func (s *catalogService) Neighbors(ctx context.Context, externalID int64) (*ProductNeighbors, bool, error) {
	dbc := dbctx.Context{Ctx: ctx}
	p, ok, err := s.GetProductByExternalID(ctx, externalID)
	if err != nil || !ok {
		return nil, false, err
	}

	out := &ProductNeighbors{Product: p}
	if out.Roots, err = s.engine.RootProductsOf(dbc, p.ID); err != nil {
		return nil, false, err
	}
	if out.Bases, err = s.engine.BaseProductsOf(dbc, p.ID, nil); err != nil {
		return nil, false, err
	}
	if out.Extensions, err = s.engine.ExtensionProductsOf(dbc, p.ID, nil); err != nil {
		return nil, false, err
	}
	if out.UpgradeTargets, err = s.engine.UpgradeTargetsOf(dbc, p.ID); err != nil {
		return nil, false, err
	}
	if out.UpgradeSources, err = s.engine.UpgradeSourcesOf(dbc, p.ID); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *catalogService) RecommendedExtensions(ctx context.Context) ([]*types.ProductExtension, error) {
	return s.engine.RecommendedExtensions(dbctx.Context{Ctx: ctx})
}

// MandatoryChannels resolves every label against the arch stored for each channel.
func (s *catalogService) MandatoryChannels(ctx context.Context, labels []string) (map[string][]string, error) {
	clean := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			clean = append(clean, l)
		}
	}
	if len(clean) == 0 {
		return nil, types.Validation("services.MandatoryChannels", "at least one channel label is required")
	}
	return s.engine.MandatoryChannelsByLabels(dbctx.Context{Ctx: ctx}, clean, nil)
}

func (s *catalogService) RefreshRuns(ctx context.Context, limit int) ([]*types.RefreshRun, error) {
	out, err := s.store.Runs.Latest(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, aggregates.MapError("services.RefreshRuns", err)
	}
	return out, nil
}

func (s *catalogService) Refresh(ctx context.Context, src snapshot.Source, opts refresh.Options) (*refresh.Report, error) {
	return s.refresher.RefreshFromSource(ctx, src, opts)
}

// RemoveAllExcept deletes every product outside keepExternalIDs in one
// transaction. Unknown ids are refused so a typo cannot wipe the catalog.
func (s *catalogService) RemoveAllExcept(ctx context.Context, keepExternalIDs []int64) (int, error) {
	const op = "services.RemoveAllExcept"
	var deleted int
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		byExternal, err := s.store.Products.ByExternalIDs(dbc)
		if err != nil {
			return aggregates.MapError(op, err)
		}
		keep := make([]uuid.UUID, 0, len(keepExternalIDs))
		var unknown []string
		for _, ext := range keepExternalIDs {
			p, ok := byExternal[ext]
			if !ok {
				unknown = append(unknown, fmt.Sprint(ext))
				continue
			}
			keep = append(keep, p.ID)
		}
		if len(unknown) > 0 {
			return types.Validation(op, "unknown product ids: %s", strings.Join(unknown, ", "))
		}
		res, err := s.reconciler.RemoveAllExcept(dbc, keep)
		if err != nil {
			return err
		}
		deleted = res.Deleted
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("Catalog reset", "kept", len(keepExternalIDs), "deleted", deleted)
	return deleted, nil
}
