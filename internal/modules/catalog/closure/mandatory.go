package closure

import (
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/catalog-backend/internal/data/aggregates"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
)

// MandatoryChannels returns the channels that must be enabled for product when it
// is installed under base with baseChannelLabel as the anchor channel.
//
// The walk visits product, then each of its base products relative to base, depth
// first. A channel is mandatory when it is the anchor itself or its parent label
// is the anchor or another mandatory channel. Results keep walk order: a product's
// own channels come before those of its ancestors. A product reached twice is
// visited once. An ancestor chain that loops back on itself is reported as a
// referential violation. A blank anchor yields no channels.
func (e *Engine) MandatoryChannels(dbc dbctx.Context, product, base uuid.UUID, baseChannelLabel string) (out []*types.ProductChannel, err error) {
	const op = "closure.MandatoryChannels"
	ctx, span := tracer.Start(dbc.Context(), op, trace.WithAttributes(
		attribute.String("product_id", product.String()),
		attribute.String("base_id", base.String()),
		attribute.String("base_channel", baseChannelLabel),
	))
	defer span.End()
	dbc.Ctx = ctx

	baseChannelLabel = strings.TrimSpace(baseChannelLabel)
	if baseChannelLabel == "" {
		return []*types.ProductChannel{}, nil
	}

	order, err := e.ancestry(dbc, op, product, base)
	if err != nil {
		return nil, fail(span, err)
	}
	chans, err := e.channels.GetByProductIDs(dbc, order)
	if err != nil {
		return nil, fail(span, aggregates.MapError(op, err))
	}
	byProduct := make(map[uuid.UUID][]*types.ProductChannel, len(order))
	for _, c := range chans {
		byProduct[c.ProductID] = append(byProduct[c.ProductID], c)
	}

	mandatory := mandatoryLabels(chans, baseChannelLabel)
	for _, pid := range order {
		for _, c := range byProduct[pid] {
			if c.ChannelLabel == baseChannelLabel {
				out = append(out, c)
				continue
			}
			if _, ok := mandatory[c.ParentLabel()]; ok {
				out = append(out, c)
			}
		}
	}
	span.SetAttributes(attribute.Int("products", len(order)), attribute.Int("channels", len(out)))
	return out, nil
}

// MandatoryChannelsForLabel resolves the mandatory channel set starting from a bare
// channel label. The first product channel carrying label is the anchor. With a
// parent label the closure runs under the product owning the parent; without one
// every channel of the anchor's product qualifies. The anchor leads the result and
// only channels of the anchor's architecture are kept. A nil resolve uses the arch
// declared on each channel row, falling back to the arch of the owning product.
func (e *Engine) MandatoryChannelsForLabel(dbc dbctx.Context, label string, resolve ArchResolver) ([]*types.ProductChannel, error) {
	const op = "closure.MandatoryChannelsForLabel"
	ctx, span := tracer.Start(dbc.Context(), op, trace.WithAttributes(attribute.String("channel", label)))
	defer span.End()
	dbc.Ctx = ctx

	anchor, ok, err := e.channels.FindFirstByChannelLabel(dbc, label)
	if err != nil {
		return nil, fail(span, aggregates.MapError(op, err))
	}
	if !ok {
		span.SetAttributes(attribute.Bool("found", false))
		return []*types.ProductChannel{}, nil
	}

	rest := anchor.Product.Channels
	if parentLabel := anchor.ParentLabel(); parentLabel != "" {
		parent, ok, err := e.channels.FindFirstByChannelLabel(dbc, parentLabel)
		if err != nil {
			return nil, fail(span, aggregates.MapError(op, err))
		}
		if !ok {
			return nil, fail(span, types.ReferentialViolation(op, "parent channel %q of %q has no owning product", parentLabel, label))
		}
		rest, err = e.MandatoryChannels(dbc, anchor.ProductID, parent.ProductID, parentLabel)
		if err != nil {
			return nil, fail(span, err)
		}
	}

	all := dedupe(append([]*types.ProductChannel{anchor}, rest...))
	if resolve == nil {
		resolve, err = e.storedArchResolver(dbc, all)
		if err != nil {
			return nil, fail(span, err)
		}
	}
	out := FilterSameArch(all, anchor.ChannelLabel, resolve)
	span.SetAttributes(attribute.Bool("found", true), attribute.Int("channels", len(out)))
	return out, nil
}

// MandatoryChannelsByLabels resolves MandatoryChannelsForLabel for every label and
// returns the mandatory labels keyed by the requested label. Unknown labels map to
// an empty list.
func (e *Engine) MandatoryChannelsByLabels(dbc dbctx.Context, labels []string, resolve ArchResolver) (map[string][]string, error) {
	out := make(map[string][]string, len(labels))
	for _, l := range labels {
		if _, done := out[l]; done {
			continue
		}
		chans, err := e.MandatoryChannelsForLabel(dbc, l, resolve)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(chans))
		for _, c := range chans {
			names = append(names, c.ChannelLabel)
		}
		out[l] = names
	}
	return out, nil
}

// ancestry lists product followed by its base products relative to root in depth
// first preorder.
func (e *Engine) ancestry(dbc dbctx.Context, op string, product, root uuid.UUID) ([]uuid.UUID, error) {
	type frame struct {
		id    uuid.UUID
		bases []uuid.UUID
		next  int
	}

	visited := map[uuid.UUID]struct{}{product: {}}
	onPath := map[uuid.UUID]struct{}{product: {}}
	order := []uuid.UUID{product}

	bases, err := e.baseIDs(dbc, op, product, root)
	if err != nil {
		return nil, err
	}
	stack := []*frame{{id: product, bases: bases}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.bases) {
			delete(onPath, top.id)
			stack = stack[:len(stack)-1]
			continue
		}
		next := top.bases[top.next]
		top.next++

		if _, loop := onPath[next]; loop {
			return nil, types.ReferentialViolation(op, "extension graph under root %s loops through product %s", root, next)
		}
		if _, seen := visited[next]; seen {
			continue
		}
		visited[next] = struct{}{}
		onPath[next] = struct{}{}
		order = append(order, next)

		nb, err := e.baseIDs(dbc, op, next, root)
		if err != nil {
			return nil, err
		}
		stack = append(stack, &frame{id: next, bases: nb})
	}
	return order, nil
}

func (e *Engine) baseIDs(dbc dbctx.Context, op string, ext, root uuid.UUID) ([]uuid.UUID, error) {
	ps, err := e.extensions.BaseProductsOf(dbc, ext, &root)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	ids := make([]uuid.UUID, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (e *Engine) storedArchResolver(dbc dbctx.Context, chans []*types.ProductChannel) (ArchResolver, error) {
	labels := make([]string, 0, len(chans))
	for _, c := range chans {
		labels = append(labels, c.ChannelLabel)
	}
	arches, err := e.channels.ArchLabels(dbc, labels)
	if err != nil {
		return nil, aggregates.MapError("closure.ArchLabels", err)
	}
	return MapResolver(arches), nil
}

// mandatoryLabels grows {anchor} with every channel whose parent is already in the
// set until nothing changes.
func mandatoryLabels(chans []*types.ProductChannel, anchor string) map[string]struct{} {
	set := map[string]struct{}{anchor: {}}
	for grew := true; grew; {
		grew = false
		for _, c := range chans {
			if _, in := set[c.ChannelLabel]; in {
				continue
			}
			if _, ok := set[c.ParentLabel()]; ok {
				set[c.ChannelLabel] = struct{}{}
				grew = true
			}
		}
	}
	return set
}

func dedupe(chans []*types.ProductChannel) []*types.ProductChannel {
	seen := make(map[uuid.UUID]struct{}, len(chans))
	out := make([]*types.ProductChannel, 0, len(chans))
	for _, c := range chans {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
