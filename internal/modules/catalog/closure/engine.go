// Package closure answers read-only traversal queries over the stored catalog
// graph: mandatory channel sets, one-hop product neighbors, extension trees and
// upgrade targets.
package closure

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/catalog-backend/internal/data/aggregates"
	"github.com/yungbote/catalog-backend/internal/data/repos"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

var tracer = otel.Tracer("catalog.closure")

type Engine struct {
	products   repos.ProductRepo
	channels   repos.ProductChannelRepo
	extensions repos.ProductExtensionRepo
	upgrades   repos.UpgradePathRepo
	log        *logger.Logger
}

func NewEngine(store *repos.Catalog, baseLog *logger.Logger) *Engine {
	return &Engine{
		products:   store.Products,
		channels:   store.Channels,
		extensions: store.Extensions,
		upgrades:   store.Upgrades,
		log:        baseLog.With("service", "ClosureEngine"),
	}
}

// BaseProductsOf returns the distinct products ext directly extends. A non-nil
// root restricts the edges to that anchor.
func (e *Engine) BaseProductsOf(dbc dbctx.Context, ext uuid.UUID, root *uuid.UUID) ([]*types.Product, error) {
	out, err := e.extensions.BaseProductsOf(dbc, ext, root)
	if err != nil {
		return nil, aggregates.MapError("closure.BaseProductsOf", err)
	}
	return out, nil
}

// RootProductsOf returns the distinct root anchors of every edge whose extension is ext.
func (e *Engine) RootProductsOf(dbc dbctx.Context, ext uuid.UUID) ([]*types.Product, error) {
	out, err := e.extensions.RootProductsOf(dbc, ext)
	if err != nil {
		return nil, aggregates.MapError("closure.RootProductsOf", err)
	}
	return out, nil
}

// ExtensionProductsOf returns the distinct products that directly extend base. A
// non-nil root restricts the edges to that anchor.
func (e *Engine) ExtensionProductsOf(dbc dbctx.Context, base uuid.UUID, root *uuid.UUID) ([]*types.Product, error) {
	out, err := e.extensions.ExtensionProductsOf(dbc, base, root)
	if err != nil {
		return nil, aggregates.MapError("closure.ExtensionProductsOf", err)
	}
	return out, nil
}

func (e *Engine) UpgradeTargetsOf(dbc dbctx.Context, from uuid.UUID) ([]*types.Product, error) {
	out, err := e.upgrades.TargetsOf(dbc, from)
	if err != nil {
		return nil, aggregates.MapError("closure.UpgradeTargetsOf", err)
	}
	return out, nil
}

func (e *Engine) UpgradeSourcesOf(dbc dbctx.Context, to uuid.UUID) ([]*types.Product, error) {
	out, err := e.upgrades.SourcesOf(dbc, to)
	if err != nil {
		return nil, aggregates.MapError("closure.UpgradeSourcesOf", err)
	}
	return out, nil
}

func (e *Engine) RecommendedExtensions(dbc dbctx.Context) ([]*types.ProductExtension, error) {
	out, err := e.extensions.Recommended(dbc)
	if err != nil {
		return nil, aggregates.MapError("closure.RecommendedExtensions", err)
	}
	return out, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
