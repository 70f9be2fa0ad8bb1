// Package refresh applies a catalog snapshot to the store in one transaction.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/yungbote/catalog-backend/internal/data/aggregates"
	"github.com/yungbote/catalog-backend/internal/data/graph"
	"github.com/yungbote/catalog-backend/internal/data/repos"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/identity"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/reconcile"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/snapshot"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/realtime/bus"
)

var tracer = otel.Tracer("catalog.refresh")

type Options struct {
	// Prune removes every stored product the snapshot does not mention.
	Prune bool
}

// Projector mirrors the committed catalog into a secondary store.
type Projector func(ctx context.Context, g graph.ProductGraph) error

type Runner struct {
	tx         aggregates.TxRunner
	store      *repos.Catalog
	resolver   *identity.Resolver
	reconciler *reconcile.Reconciler
	events     bus.Bus
	project    Projector
	log        *logger.Logger

	mu     sync.Mutex
	flight singleflight.Group
}

// NewRunner wires a refresh runner. events and project may be nil.
func NewRunner(
	tx aggregates.TxRunner,
	store *repos.Catalog,
	resolver *identity.Resolver,
	reconciler *reconcile.Reconciler,
	events bus.Bus,
	project Projector,
	baseLog *logger.Logger,
) *Runner {
	return &Runner{
		tx:         tx,
		store:      store,
		resolver:   resolver,
		reconciler: reconciler,
		events:     events,
		project:    project,
		log:        baseLog.With("service", "Refresher"),
	}
}

// RefreshFromSource fetches a snapshot from src and applies it. Concurrent calls
// for the same source share one fetch and one merge. The shared work is detached
// from every caller's cancellation; a caller whose ctx ends stops waiting and gets
// ctx.Err() while the refresh runs on for the others.
func (r *Runner) RefreshFromSource(ctx context.Context, src snapshot.Source, opts Options) (*Report, error) {
	key := src.Name()
	if opts.Prune {
		key += "#prune"
	}
	work := context.WithoutCancel(ctx)
	ch := r.flight.DoChan(key, func() (any, error) {
		snap, err := src.Fetch(work)
		if err != nil {
			return nil, err
		}
		return r.Refresh(work, src.Name(), snap, opts)
	})

	select {
	case <-ctx.Done():
		r.log.Warn("Stopped waiting for refresh", "source", key, "error", ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			r.log.Debug("Joined in-flight refresh", "source", key)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Report), nil
	}
}

// Refresh applies snap inside one transaction. Refreshes never interleave. Rows the
// snapshot gets wrong are rejected and listed in the report; any store failure
// rolls the whole refresh back.
func (r *Runner) Refresh(ctx context.Context, source string, snap *snapshot.Snapshot, opts Options) (*Report, error) {
	const op = "refresh.Refresh"
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	rep := &Report{Source: source, StartedAt: time.Now().UTC()}
	run, err := r.store.Runs.Start(dbctx.Context{Ctx: ctx}, source)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	rep.RunID = run.ID
	span.SetAttributes(attribute.String("run_id", run.ID.String()), attribute.String("source", source))

	var rejected []error
	err = r.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var applyErr error
		rejected, applyErr = r.apply(dbc, snap, opts, rep)
		return applyErr
	})
	for _, e := range rejected {
		for _, leaf := range flatten(e) {
			rep.Rejected = append(rep.Rejected, leaf.Error())
		}
	}
	rep.Duration = time.Since(rep.StartedAt)

	status, errMsg := types.RefreshStatusSucceeded, ""
	if err != nil {
		status, errMsg = types.RefreshStatusFailed, err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	stats, _ := json.Marshal(rep)
	if ferr := r.store.Runs.Finish(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, run.ID, status, datatypes.JSON(stats), errMsg); ferr != nil {
		r.log.Error("Failed to record refresh run", "run_id", run.ID, "error", ferr)
	}
	if err != nil {
		r.log.Error("Catalog refresh failed", "run_id", run.ID, "source", source, "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("writes", rep.Writes()), attribute.Int("rejected", len(rep.Rejected)))
	r.log.Info("Catalog refresh committed",
		"run_id", run.ID,
		"source", source,
		"writes", rep.Writes(),
		"rejected", len(rep.Rejected),
		"duration", rep.Duration,
	)

	r.afterCommit(ctx, rep, stats)
	return rep, nil
}

// apply writes snap through dbc and returns the rows it rejected.
func (r *Runner) apply(dbc dbctx.Context, snap *snapshot.Snapshot, opts Options, rep *Report) ([]error, error) {
	const op = "refresh.apply"
	var rejected []error

	archByLabel, err := r.store.Arches.EnsureLabels(dbc, snap.ArchLabels())
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}

	idByExternal, err := r.upsertProducts(dbc, snap, archByLabel, rep)
	if err != nil {
		return nil, err
	}

	for _, p := range snap.Products {
		specs := make([]reconcile.ChannelSpec, 0, len(p.Channels))
		for _, c := range p.Channels {
			spec := reconcile.ChannelSpec{Label: c.Label}
			if parent := strings.TrimSpace(c.Parent); parent != "" {
				spec.Parent = &parent
			}
			if arch := strings.TrimSpace(c.Arch); arch != "" {
				spec.Arch = &arch
			}
			specs = append(specs, spec)
		}
		res, err := r.reconciler.MergeChannels(dbc, idByExternal[p.ProductID], specs)
		if err != nil {
			return nil, err
		}
		rep.Channels.Add(res)
		rejected = append(rejected, res.Rejected)
	}

	refs := &refResolver{runner: r, dbc: dbc, snapshot: idByExternal, useStore: !opts.Prune}

	upgrades := make([]types.UpgradeKey, 0, len(snap.Upgrades))
	for _, u := range snap.Upgrades {
		from, fromErr := refs.resolve(u.From)
		to, toErr := refs.resolve(u.To)
		if err := errors.Join(fromErr, toErr); err != nil {
			if !types.IsCode(err, types.CodeReferentialViolation) {
				return nil, err
			}
			rejected = append(rejected, err)
			continue
		}
		upgrades = append(upgrades, types.UpgradeKey{From: from, To: to})
	}
	res, err := r.reconciler.MergeUpgradePaths(dbc, upgrades)
	if err != nil {
		return nil, err
	}
	rep.Upgrades = res
	rejected = append(rejected, res.Rejected)

	edges := make([]reconcile.ExtensionEdge, 0, len(snap.Extensions))
	for _, e := range snap.Extensions {
		root, rootErr := refs.resolve(e.Root)
		base, baseErr := refs.resolve(e.Base)
		ext, extErr := refs.resolve(e.Extension)
		if err := errors.Join(rootErr, baseErr, extErr); err != nil {
			if !types.IsCode(err, types.CodeReferentialViolation) {
				return nil, err
			}
			rejected = append(rejected, err)
			continue
		}
		edges = append(edges, reconcile.ExtensionEdge{
			Key:         types.ExtensionKey{Root: root, Base: base, Extension: ext},
			Recommended: e.Recommended,
		})
	}
	res, err = r.reconciler.MergeExtensions(dbc, edges)
	if err != nil {
		return nil, err
	}
	rep.Extensions = res
	rejected = append(rejected, res.Rejected)

	if opts.Prune {
		keep := make([]uuid.UUID, 0, len(idByExternal))
		for _, id := range idByExternal {
			keep = append(keep, id)
		}
		res, err := r.reconciler.RemoveAllExcept(dbc, keep)
		if err != nil {
			return nil, err
		}
		rep.Pruned = res.Deleted
	}
	return rejected, nil
}

// upsertProducts matches every snapshot product by external id, then by imprecise
// identity, and creates the rest. It returns stored ids keyed by external id.
func (r *Runner) upsertProducts(dbc dbctx.Context, snap *snapshot.Snapshot, archByLabel map[string]*types.PackageArch, rep *Report) (map[int64]uuid.UUID, error) {
	const op = "refresh.upsertProducts"

	byExternal, err := r.store.Products.ByExternalIDs(dbc)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	inSnapshot := make(map[int64]struct{}, len(snap.Products))
	for _, p := range snap.Products {
		inSnapshot[p.ProductID] = struct{}{}
	}

	out := make(map[int64]uuid.UUID, len(snap.Products))
	claimed := make(map[uuid.UUID]struct{}, len(snap.Products))
	for _, sp := range snap.Products {
		ident := sp.Ident().Normalize()
		var archID *uuid.UUID
		if ident.Arch != nil {
			if a, ok := archByLabel[*ident.Arch]; ok {
				archID = &a.ID
			}
		}

		existing, ok := byExternal[sp.ProductID]
		if !ok {
			existing, ok, err = r.resolver.FindProduct(dbc, ident, true)
			if err != nil {
				return nil, err
			}
			if ok {
				// Another snapshot entry owns this row, or it was matched already.
				_, owned := inSnapshot[existing.ExternalID]
				_, taken := claimed[existing.ID]
				if owned || taken {
					ok = false
				}
			}
		}

		if !ok {
			created, err := r.store.Products.Create(dbc, []*types.Product{{
				ExternalID:   sp.ProductID,
				Name:         ident.Name,
				Version:      ident.Version,
				Release:      ident.Release,
				ArchID:       archID,
				FriendlyName: sp.FriendlyName,
			}})
			if err != nil {
				return nil, aggregates.MapError(op, err)
			}
			out[sp.ProductID] = created[0].ID
			claimed[created[0].ID] = struct{}{}
			rep.Products.Created++
			continue
		}

		out[sp.ProductID] = existing.ID
		claimed[existing.ID] = struct{}{}
		next := &types.Product{
			ID:           existing.ID,
			ExternalID:   sp.ProductID,
			Name:         ident.Name,
			Version:      ident.Version,
			Release:      ident.Release,
			ArchID:       archID,
			FriendlyName: sp.FriendlyName,
		}
		if sameProduct(existing, next) {
			rep.Products.Unchanged++
			continue
		}
		if err := r.store.Products.Update(dbc, next); err != nil {
			return nil, aggregates.MapError(op, err)
		}
		rep.Products.Updated++
	}
	return out, nil
}

func (r *Runner) afterCommit(ctx context.Context, rep *Report, stats []byte) {
	ctx = context.WithoutCancel(ctx)
	if r.project != nil {
		if g, err := r.loadGraph(ctx); err != nil {
			r.log.Warn("Failed to load catalog for projection", "error", err)
		} else if err := r.project(ctx, g); err != nil {
			r.log.Warn("Catalog projection failed (continuing)", "run_id", rep.RunID, "error", err)
		}
	}
	if r.events != nil {
		ev := bus.CatalogEvent{
			Type:   bus.EventCatalogRefreshed,
			RunID:  rep.RunID.String(),
			Source: rep.Source,
			At:     time.Now().UTC(),
			Stats:  stats,
		}
		if err := r.events.Publish(ctx, ev); err != nil {
			r.log.Warn("Failed to publish catalog event (continuing)", "run_id", rep.RunID, "error", err)
		}
	}
}

func (r *Runner) loadGraph(ctx context.Context) (graph.ProductGraph, error) {
	dbc := dbctx.Context{Ctx: ctx}
	var g graph.ProductGraph
	var err error
	if g.Products, err = r.store.Products.All(dbc); err != nil {
		return g, err
	}
	if g.Extensions, err = r.store.Extensions.All(dbc); err != nil {
		return g, err
	}
	g.Upgrades, err = r.store.Upgrades.All(dbc)
	return g, err
}

func sameProduct(a, b *types.Product) bool {
	return a.ExternalID == b.ExternalID &&
		a.Name == b.Name &&
		eqStr(a.Version, b.Version) &&
		eqStr(a.Release, b.Release) &&
		eqID(a.ArchID, b.ArchID) &&
		a.FriendlyName == b.FriendlyName
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
