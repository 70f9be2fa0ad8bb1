package refresh

import (
	"github.com/google/uuid"

	"github.com/yungbote/catalog-backend/internal/data/aggregates"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/snapshot"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
)

// refResolver turns snapshot product references into stored product ids. External
// ids resolve against this snapshot first and, unless the refresh prunes, the
// store second. Identities go through the imprecise identity lookup; when the
// refresh prunes, they must land on a product of this snapshot.
type refResolver struct {
	runner   *Runner
	dbc      dbctx.Context
	snapshot map[int64]uuid.UUID
	useStore bool
	stored   map[int64]uuid.UUID
}

func (rr *refResolver) resolve(ref snapshot.Ref) (uuid.UUID, error) {
	const op = "refresh.resolveRef"
	if ref.ProductID != 0 {
		if id, ok := rr.snapshot[ref.ProductID]; ok {
			return id, nil
		}
		if id, ok := rr.stored[ref.ProductID]; ok {
			return id, nil
		}
		if !rr.useStore {
			return uuid.Nil, types.ReferentialViolation(op, "product %s is not part of the snapshot", ref)
		}
		p, ok, err := rr.runner.store.Products.GetByExternalID(rr.dbc, ref.ProductID)
		if err != nil {
			return uuid.Nil, aggregates.MapError(op, err)
		}
		if !ok {
			return uuid.Nil, types.ReferentialViolation(op, "unknown product %s", ref)
		}
		if rr.stored == nil {
			rr.stored = map[int64]uuid.UUID{}
		}
		rr.stored[ref.ProductID] = p.ID
		return p.ID, nil
	}
	if ref.Ident == nil {
		return uuid.Nil, types.ReferentialViolation(op, "empty product reference")
	}
	p, ok, err := rr.runner.resolver.FindProduct(rr.dbc, *ref.Ident, true)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, types.ReferentialViolation(op, "unknown product %s", ref)
	}
	if !rr.useStore && !rr.inSnapshot(p.ID) {
		return uuid.Nil, types.ReferentialViolation(op, "product %s is not part of the snapshot", ref)
	}
	return p.ID, nil
}

func (rr *refResolver) inSnapshot(id uuid.UUID) bool {
	for _, sid := range rr.snapshot {
		if sid == id {
			return true
		}
	}
	return false
}
