// Package identity finds stored products by natural identity.
package identity

import (
	"strings"

	"github.com/yungbote/catalog-backend/internal/data/aggregates"
	"github.com/yungbote/catalog-backend/internal/data/repos"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type Resolver struct {
	arches   repos.PackageArchRepo
	products repos.ProductRepo
	log      *logger.Logger
}

func NewResolver(arches repos.PackageArchRepo, products repos.ProductRepo, baseLog *logger.Logger) *Resolver {
	return &Resolver{arches: arches, products: products, log: baseLog.With("service", "IdentityResolver")}
}

// FindProduct returns the first stored product matching ident.
//
// In precise mode each field must equal the normalized input, and an unspecified
// input only matches a stored NULL. In imprecise mode a specified input also
// matches a stored NULL. When several rows qualify the lowest in
// (name, version, release, arch) order is returned. A miss is (nil, false, nil).
func (r *Resolver) FindProduct(dbc dbctx.Context, ident types.ProductIdent, imprecise bool) (*types.Product, bool, error) {
	const op = "identity.FindProduct"

	n := ident.Normalize()
	if strings.TrimSpace(n.Name) == "" {
		return nil, false, types.Validation(op, "product name is required")
	}

	q := repos.IdentQuery{
		Name:      n.Name,
		Version:   n.Version,
		Release:   n.Release,
		Imprecise: imprecise,
	}
	if n.Arch != nil {
		q.ArchSpecified = true
		arch, ok, err := r.arches.GetByLabel(dbc, *n.Arch)
		if err != nil {
			return nil, false, aggregates.MapError(op, err)
		}
		if ok {
			q.ArchID = &arch.ID
		} else {
			r.log.Debug("Unknown arch label in identity lookup", "ident", n.String())
		}
	}

	p, ok, err := r.products.FindByIdent(dbc, q)
	if err != nil {
		return nil, false, aggregates.MapError(op, err)
	}
	return p, ok, nil
}

// FindProducts resolves many identities with the same policy. Misses are absent
// from the result.
func (r *Resolver) FindProducts(dbc dbctx.Context, idents []types.ProductIdent, imprecise bool) (map[types.ProductKey]*types.Product, error) {
	out := make(map[types.ProductKey]*types.Product, len(idents))
	for _, id := range idents {
		key := id.Key()
		if _, done := out[key]; done {
			continue
		}
		p, ok, err := r.FindProduct(dbc, id, imprecise)
		if err != nil {
			return nil, err
		}
		if ok {
			out[key] = p
		}
	}
	return out, nil
}
