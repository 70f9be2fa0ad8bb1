package reconcile

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/pointers"
)

func TestDiffUpgradePaths(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	existing := []*types.UpgradePath{
		{ID: uuid.New(), FromProductID: a, ToProductID: b},
		{ID: uuid.New(), FromProductID: b, ToProductID: c},
	}
	desired := []types.UpgradeKey{{From: a, To: b}, {From: a, To: c}, {From: a, To: c}}

	d := DiffUpgradePaths(existing, desired)
	if len(d.Delete) != 1 || d.Delete[0].Key() != (types.UpgradeKey{From: b, To: c}) {
		t.Fatalf("Delete: unexpected %+v", d.Delete)
	}
	if len(d.Insert) != 1 || d.Insert[0] != (types.UpgradeKey{From: a, To: c}) {
		t.Fatalf("Insert: unexpected %+v", d.Insert)
	}

	if !DiffUpgradePaths(existing, []types.UpgradeKey{{From: b, To: c}, {From: a, To: b}}).Empty() {
		t.Fatalf("expected no writes for an equal set in a different order")
	}
}

func TestDiffExtensions(t *testing.T) {
	root, mod, ext := uuid.New(), uuid.New(), uuid.New()
	keep := types.ExtensionKey{Root: root, Base: root, Extension: mod}
	flip := types.ExtensionKey{Root: root, Base: mod, Extension: ext}
	gone := types.ExtensionKey{Root: mod, Base: mod, Extension: ext}
	add := types.ExtensionKey{Root: root, Base: root, Extension: ext}

	existing := []*types.ProductExtension{
		edgeRow(keep, true),
		edgeRow(flip, false),
		edgeRow(gone, false),
	}

	cases := []struct {
		name                      string
		desired                   []ExtensionEdge
		deletes, updates, inserts int
	}{
		{
			name:    "unchanged",
			desired: []ExtensionEdge{{Key: keep, Recommended: true}, {Key: flip}, {Key: gone}},
		},
		{
			name:    "single flip",
			desired: []ExtensionEdge{{Key: keep, Recommended: true}, {Key: flip, Recommended: true}, {Key: gone}},
			updates: 1,
		},
		{
			name:    "first occurrence wins",
			desired: []ExtensionEdge{{Key: keep, Recommended: true}, {Key: flip}, {Key: flip, Recommended: true}, {Key: gone}},
		},
		{
			name:    "delete and insert",
			desired: []ExtensionEdge{{Key: keep, Recommended: true}, {Key: flip}, {Key: add, Recommended: true}},
			deletes: 1,
			inserts: 1,
		},
		{
			name:    "empty snapshot",
			deletes: 3,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := DiffExtensions(existing, tc.desired)
			if len(d.Delete) != tc.deletes || len(d.Update) != tc.updates || len(d.Insert) != tc.inserts {
				t.Fatalf("expected %d/%d/%d, got %d/%d/%d", tc.deletes, tc.updates, tc.inserts, len(d.Delete), len(d.Update), len(d.Insert))
			}
		})
	}
}

func TestDiffChannels(t *testing.T) {
	pid := uuid.New()
	existing := []*types.ProductChannel{
		{ID: uuid.New(), ProductID: pid, ChannelLabel: "pool"},
		{ID: uuid.New(), ProductID: pid, ChannelLabel: "updates", ParentChannelLabel: pointers.String("pool")},
		{ID: uuid.New(), ProductID: pid, ChannelLabel: "debug", ParentChannelLabel: pointers.String("pool")},
		{ID: uuid.New(), ProductID: pid, ChannelLabel: "extras", ParentChannelLabel: pointers.String("pool"), Arch: pointers.String("x86_64")},
	}
	desired := []ChannelSpec{
		{Label: "pool"},
		{Label: "extras", Parent: pointers.String("pool"), Arch: pointers.String("aarch64")},
		{Label: "updates", Parent: pointers.String("base")},
		{Label: "source", Parent: pointers.String("pool")},
	}

	d := DiffChannels(existing, desired)
	if len(d.Delete) != 1 || d.Delete[0].ChannelLabel != "debug" {
		t.Fatalf("Delete: unexpected %+v", d.Delete)
	}
	if len(d.Update) != 2 {
		t.Fatalf("Update: expected 2, got %+v", d.Update)
	}
	if d.Update[0].Label != "updates" || *d.Update[0].Parent != "base" || d.Update[0].Arch != nil {
		t.Fatalf("Update: unexpected reparent %+v", d.Update[0])
	}
	if d.Update[1].Label != "extras" || *d.Update[1].Arch != "aarch64" {
		t.Fatalf("Update: unexpected arch change %+v", d.Update[1])
	}
	if len(d.Insert) != 1 || d.Insert[0].Label != "source" {
		t.Fatalf("Insert: unexpected %+v", d.Insert)
	}
}

func TestFindCycleEdges(t *testing.T) {
	root, a, b, c := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	other := uuid.New()

	edges := []ExtensionEdge{
		{Key: types.ExtensionKey{Root: root, Base: root, Extension: a}},
		{Key: types.ExtensionKey{Root: root, Base: a, Extension: b}},
		{Key: types.ExtensionKey{Root: root, Base: root, Extension: b}},
		{Key: types.ExtensionKey{Root: root, Base: b, Extension: c}},
		{Key: types.ExtensionKey{Root: root, Base: c, Extension: a}},
		{Key: types.ExtensionKey{Root: other, Base: b, Extension: a}},
		{Key: types.ExtensionKey{Root: root, Base: c, Extension: c}},
	}
	got := FindCycleEdges(edges)
	if len(got) != 2 {
		t.Fatalf("expected 2 cycle edges, got %d: %+v", len(got), got)
	}
	if got[0].Key != edges[4].Key || got[1].Key != edges[6].Key {
		t.Fatalf("unexpected cycle edges: %+v", got)
	}
}

func edgeRow(k types.ExtensionKey, recommended bool) *types.ProductExtension {
	return &types.ProductExtension{
		ID:                 uuid.New(),
		RootProductID:      k.Root,
		BaseProductID:      k.Base,
		ExtensionProductID: k.Extension,
		Recommended:        recommended,
	}
}
