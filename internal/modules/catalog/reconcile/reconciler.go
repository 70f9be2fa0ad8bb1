// Package reconcile merges a desired catalog graph into the stored one with the
// fewest writes.
package reconcile

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/catalog-backend/internal/data/aggregates"
	"github.com/yungbote/catalog-backend/internal/data/repos"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

var tracer = otel.Tracer("catalog.reconcile")

// MergeResult counts the writes a merge performed. Rejected joins the per-row
// referential violations; rejected rows are skipped and the rest is merged.
type MergeResult struct {
	Deleted  int   `json:"deleted"`
	Updated  int   `json:"updated"`
	Inserted int   `json:"inserted"`
	Rejected error `json:"-"`
}

func (r MergeResult) Writes() int { return r.Deleted + r.Updated + r.Inserted }

func (r *MergeResult) Add(o MergeResult) {
	r.Deleted += o.Deleted
	r.Updated += o.Updated
	r.Inserted += o.Inserted
	r.Rejected = errors.Join(r.Rejected, o.Rejected)
}

type Reconciler struct {
	products   repos.ProductRepo
	channels   repos.ProductChannelRepo
	extensions repos.ProductExtensionRepo
	upgrades   repos.UpgradePathRepo
	log        *logger.Logger
}

func NewReconciler(store *repos.Catalog, baseLog *logger.Logger) *Reconciler {
	return &Reconciler{
		products:   store.Products,
		channels:   store.Channels,
		extensions: store.Extensions,
		upgrades:   store.Upgrades,
		log:        baseLog.With("service", "Reconciler"),
	}
}

// MergeUpgradePaths makes the stored upgrade paths equal desired. Store failures
// abort the merge and are returned; rows written before the failure stay unless
// dbc carries a transaction that the caller rolls back.
func (r *Reconciler) MergeUpgradePaths(dbc dbctx.Context, desired []types.UpgradeKey) (res MergeResult, err error) {
	const op = "reconcile.MergeUpgradePaths"
	ctx, span := tracer.Start(dbc.Context(), op, trace.WithAttributes(attribute.Int("desired", len(desired))))
	defer func() { endSpan(span, res, err) }()
	dbc.Ctx = ctx

	var ids []uuid.UUID
	for _, k := range desired {
		ids = append(ids, k.From, k.To)
	}
	known, err := r.knownProducts(dbc, op, ids)
	if err != nil {
		return res, err
	}
	valid := make([]types.UpgradeKey, 0, len(desired))
	for _, k := range desired {
		if missing := missingOf(known, k.From, k.To); len(missing) > 0 {
			res.Rejected = errors.Join(res.Rejected, r.reject(op, "upgrade path %s -> %s references unknown products %s", k.From, k.To, missing))
			continue
		}
		valid = append(valid, k)
	}

	existing, err := r.upgrades.All(dbc)
	if err != nil {
		return res, aggregates.MapError(op, err)
	}
	d := DiffUpgradePaths(existing, valid)
	if d.Empty() {
		return res, nil
	}

	del := make([]uuid.UUID, 0, len(d.Delete))
	for _, e := range d.Delete {
		del = append(del, e.ID)
	}
	n, err := r.upgrades.DeleteByIDs(dbc, del)
	if err != nil {
		return res, aggregates.MapError(op, err)
	}
	res.Deleted = int(n)

	rows := make([]*types.UpgradePath, 0, len(d.Insert))
	for _, k := range d.Insert {
		rows = append(rows, &types.UpgradePath{FromProductID: k.From, ToProductID: k.To})
	}
	if _, err := r.upgrades.Create(dbc, rows); err != nil {
		return res, aggregates.MapError(op, err)
	}
	res.Inserted = len(rows)

	r.log.Info("Merged upgrade paths", "deleted", res.Deleted, "inserted", res.Inserted)
	return res, nil
}

// MergeExtensions makes the stored extension edges equal desired. Only the
// recommended flag of a surviving edge is ever updated in place. Edges that
// reference unknown products, anchor a root to itself or close a cycle under
// their root are rejected.
func (r *Reconciler) MergeExtensions(dbc dbctx.Context, desired []ExtensionEdge) (res MergeResult, err error) {
	const op = "reconcile.MergeExtensions"
	ctx, span := tracer.Start(dbc.Context(), op, trace.WithAttributes(attribute.Int("desired", len(desired))))
	defer func() { endSpan(span, res, err) }()
	dbc.Ctx = ctx

	var ids []uuid.UUID
	for _, e := range desired {
		ids = append(ids, e.Key.Root, e.Key.Base, e.Key.Extension)
	}
	known, err := r.knownProducts(dbc, op, ids)
	if err != nil {
		return res, err
	}

	seen := make(map[types.ExtensionKey]struct{}, len(desired))
	candidates := make([]ExtensionEdge, 0, len(desired))
	for _, e := range desired {
		k := e.Key
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if missing := missingOf(known, k.Root, k.Base, k.Extension); len(missing) > 0 {
			res.Rejected = errors.Join(res.Rejected, r.reject(op, "extension %s under %s/%s references unknown products %s", k.Extension, k.Root, k.Base, missing))
			continue
		}
		if k.Root == k.Extension {
			res.Rejected = errors.Join(res.Rejected, r.reject(op, "extension %s is anchored at itself", k.Extension))
			continue
		}
		candidates = append(candidates, e)
	}

	cyclic := make(map[types.ExtensionKey]struct{})
	for _, e := range FindCycleEdges(candidates) {
		cyclic[e.Key] = struct{}{}
		res.Rejected = errors.Join(res.Rejected, r.reject(op, "extension %s of %s under root %s closes a cycle", e.Key.Extension, e.Key.Base, e.Key.Root))
	}
	valid := candidates[:0]
	for _, e := range candidates {
		if _, bad := cyclic[e.Key]; !bad {
			valid = append(valid, e)
		}
	}

	existing, err := r.extensions.All(dbc)
	if err != nil {
		return res, aggregates.MapError(op, err)
	}
	d := DiffExtensions(existing, valid)
	if d.Empty() {
		return res, nil
	}

	del := make([]uuid.UUID, 0, len(d.Delete))
	for _, e := range d.Delete {
		del = append(del, e.ID)
	}
	n, err := r.extensions.DeleteByIDs(dbc, del)
	if err != nil {
		return res, aggregates.MapError(op, err)
	}
	res.Deleted = int(n)

	for _, u := range d.Update {
		if err := r.extensions.UpdateRecommended(dbc, u.ID, u.Recommended); err != nil {
			return res, aggregates.MapError(op, err)
		}
		res.Updated++
	}

	rows := make([]*types.ProductExtension, 0, len(d.Insert))
	for _, e := range d.Insert {
		rows = append(rows, &types.ProductExtension{
			RootProductID:      e.Key.Root,
			BaseProductID:      e.Key.Base,
			ExtensionProductID: e.Key.Extension,
			Recommended:        e.Recommended,
		})
	}
	if _, err := r.extensions.Create(dbc, rows); err != nil {
		return res, aggregates.MapError(op, err)
	}
	res.Inserted = len(rows)

	r.log.Info("Merged product extensions", "deleted", res.Deleted, "updated", res.Updated, "inserted", res.Inserted)
	return res, nil
}

// MergeChannels makes the channel set of one product equal desired, keyed by label.
func (r *Reconciler) MergeChannels(dbc dbctx.Context, productID uuid.UUID, desired []ChannelSpec) (res MergeResult, err error) {
	const op = "reconcile.MergeChannels"

	clean := make([]ChannelSpec, 0, len(desired))
	for _, c := range desired {
		label := strings.TrimSpace(c.Label)
		if label == "" {
			res.Rejected = errors.Join(res.Rejected, types.Validation(op, "blank channel label on product %s", productID))
			continue
		}
		var parent *string
		if c.Parent != nil {
			if p := strings.TrimSpace(*c.Parent); p != "" && p != label {
				parent = &p
			}
		}
		var arch *string
		if c.Arch != nil {
			if a := strings.ToLower(strings.TrimSpace(*c.Arch)); a != "" {
				arch = &a
			}
		}
		clean = append(clean, ChannelSpec{Label: label, Parent: parent, Arch: arch})
	}

	existing, err := r.channels.GetByProductIDs(dbc, []uuid.UUID{productID})
	if err != nil {
		return res, aggregates.MapError(op, err)
	}
	d := DiffChannels(existing, clean)
	if d.Empty() {
		return res, nil
	}

	del := make([]uuid.UUID, 0, len(d.Delete))
	for _, c := range d.Delete {
		del = append(del, c.ID)
	}
	n, err := r.channels.DeleteByIDs(dbc, del)
	if err != nil {
		return res, aggregates.MapError(op, err)
	}
	res.Deleted = int(n)

	for _, u := range d.Update {
		if err := r.channels.UpdateLabels(dbc, u.ID, u.Parent, u.Arch); err != nil {
			return res, aggregates.MapError(op, err)
		}
		res.Updated++
	}

	rows := make([]*types.ProductChannel, 0, len(d.Insert))
	for _, c := range d.Insert {
		rows = append(rows, &types.ProductChannel{ProductID: productID, ChannelLabel: c.Label, ParentChannelLabel: c.Parent, Arch: c.Arch})
	}
	if _, err := r.channels.Create(dbc, rows); err != nil {
		return res, aggregates.MapError(op, err)
	}
	res.Inserted = len(rows)

	r.log.Debug("Merged product channels", "product_id", productID, "deleted", res.Deleted, "updated", res.Updated, "inserted", res.Inserted)
	return res, nil
}

// RemoveAllExcept deletes every product not in retain, along with the channels and
// edges that reference them.
func (r *Reconciler) RemoveAllExcept(dbc dbctx.Context, retain []uuid.UUID) (res MergeResult, err error) {
	const op = "reconcile.RemoveAllExcept"
	ctx, span := tracer.Start(dbc.Context(), op, trace.WithAttributes(attribute.Int("retain", len(retain))))
	defer func() { endSpan(span, res, err) }()
	dbc.Ctx = ctx

	n, err := r.products.DeleteAllExcept(dbc, retain)
	if err != nil {
		return res, aggregates.MapError(op, err)
	}
	res.Deleted = int(n)
	return res, nil
}

func (r *Reconciler) knownProducts(dbc dbctx.Context, op string, ids []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	uniq := make(map[uuid.UUID]struct{}, len(ids))
	list := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := uniq[id]; ok {
			continue
		}
		uniq[id] = struct{}{}
		list = append(list, id)
	}
	found, err := r.products.GetByIDs(dbc, list)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for _, p := range found {
		known[p.ID] = struct{}{}
	}
	return known, nil
}

func (r *Reconciler) reject(op, format string, args ...any) error {
	err := types.ReferentialViolation(op, format, args...)
	r.log.Warn("Rejected catalog row", "error", err)
	return err
}

func missingOf(known map[uuid.UUID]struct{}, ids ...uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func endSpan(span trace.Span, res MergeResult, err error) {
	span.SetAttributes(
		attribute.Int("deleted", res.Deleted),
		attribute.Int("updated", res.Updated),
		attribute.Int("inserted", res.Inserted),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
