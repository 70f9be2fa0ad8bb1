package closure

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/data/repos"
	"github.com/yungbote/catalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
)

func newEngine(t *testing.T) (*Engine, *gorm.DB, context.Context, dbctx.Context) {
	t.Helper()
	db := testutil.DB(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	return NewEngine(repos.NewCatalog(db, log), log), db, ctx, dbctx.Context{Ctx: ctx}
}

func labels(chans []*types.ProductChannel) []string {
	out := make([]string, 0, len(chans))
	for _, c := range chans {
		out = append(out, c.ChannelLabel)
	}
	return out
}

func TestMandatoryChannelsThreeTier(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)

	a := testutil.SeedProduct(t, ctx, db, 1, "a", "1", "", nil)
	b := testutil.SeedProduct(t, ctx, db, 2, "b", "1", "", nil)
	c := testutil.SeedProduct(t, ctx, db, 3, "c", "1", "", nil)
	testutil.SeedChannel(t, ctx, db, a, "chan-A", "")
	testutil.SeedChannel(t, ctx, db, b, "chan-B", "chan-A")
	testutil.SeedChannel(t, ctx, db, c, "chan-C", "chan-B")
	testutil.SeedChannel(t, ctx, db, c, "chan-C-debug", "")
	testutil.SeedExtension(t, ctx, db, a, a, b, false)
	testutil.SeedExtension(t, ctx, db, a, b, c, false)

	got, err := e.MandatoryChannels(dbc, c.ID, a.ID, "chan-A")
	if err != nil {
		t.Fatalf("MandatoryChannels: %v", err)
	}
	if strings.Join(labels(got), ",") != "chan-C,chan-B,chan-A" {
		t.Fatalf("MandatoryChannels: unexpected result %v", labels(got))
	}
}

func TestMandatoryChannelsDiamondVisitsOnce(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)

	r := testutil.SeedProduct(t, ctx, db, 1, "r", "1", "", nil)
	a := testutil.SeedProduct(t, ctx, db, 2, "a", "1", "", nil)
	b := testutil.SeedProduct(t, ctx, db, 3, "b", "1", "", nil)
	c := testutil.SeedProduct(t, ctx, db, 4, "c", "1", "", nil)
	testutil.SeedChannel(t, ctx, db, r, "r-pool", "")
	testutil.SeedChannel(t, ctx, db, a, "a-pool", "r-pool")
	testutil.SeedChannel(t, ctx, db, b, "b-pool", "r-pool")
	testutil.SeedChannel(t, ctx, db, c, "c-pool", "r-pool")
	testutil.SeedExtension(t, ctx, db, r, r, a, false)
	testutil.SeedExtension(t, ctx, db, r, r, b, false)
	testutil.SeedExtension(t, ctx, db, r, a, c, false)
	testutil.SeedExtension(t, ctx, db, r, b, c, false)

	got, err := e.MandatoryChannels(dbc, c.ID, r.ID, "r-pool")
	if err != nil {
		t.Fatalf("MandatoryChannels: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("MandatoryChannels: expected 4 channels, got %v", labels(got))
	}
	if got[0].ChannelLabel != "c-pool" {
		t.Fatalf("MandatoryChannels: expected own channel first, got %v", labels(got))
	}
	seen := map[string]int{}
	for _, l := range labels(got) {
		seen[l]++
	}
	if seen["r-pool"] != 1 {
		t.Fatalf("MandatoryChannels: root channel repeated: %v", labels(got))
	}
}

func TestMandatoryChannelsCycle(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)

	r := testutil.SeedProduct(t, ctx, db, 1, "r", "1", "", nil)
	p := testutil.SeedProduct(t, ctx, db, 2, "p", "1", "", nil)
	q := testutil.SeedProduct(t, ctx, db, 3, "q", "1", "", nil)
	testutil.SeedChannel(t, ctx, db, p, "p-pool", "r-pool")
	testutil.SeedExtension(t, ctx, db, r, p, q, false)
	testutil.SeedExtension(t, ctx, db, r, q, p, false)

	_, err := e.MandatoryChannels(dbc, p.ID, r.ID, "r-pool")
	if !types.IsCode(err, types.CodeReferentialViolation) {
		t.Fatalf("MandatoryChannels: expected referential violation, got %v", err)
	}

	if _, _, err := e.ExtensionTree(dbc, r.ID); !types.IsCode(err, types.CodeReferentialViolation) {
		t.Fatalf("ExtensionTree: expected referential violation, got %v", err)
	}
}

func seedArchSiblings(t *testing.T, db *gorm.DB, ctx context.Context) (web *types.Product) {
	t.Helper()
	x86 := testutil.SeedArch(t, ctx, db, "x86_64")
	arm := testutil.SeedArch(t, ctx, db, "aarch64")

	slesX86 := testutil.SeedProduct(t, ctx, db, 1, "sles", "15", "", x86)
	slesArm := testutil.SeedProduct(t, ctx, db, 2, "sles", "15", "", arm)
	web = testutil.SeedProduct(t, ctx, db, 3, "sle-module-web", "15", "", x86)

	testutil.SeedChannel(t, ctx, db, slesX86, "base-x86_64", "")
	testutil.SeedChannel(t, ctx, db, slesX86, "updates-x86_64", "base-x86_64")
	testutil.SeedChannel(t, ctx, db, slesX86, "leak-aarch64", "base-x86_64")
	testutil.SeedChannel(t, ctx, db, slesArm, "base-aarch64", "")
	testutil.SeedChannel(t, ctx, db, slesArm, "updates-aarch64", "base-aarch64")
	testutil.SeedChannel(t, ctx, db, web, "web-x86_64", "base-x86_64")
	testutil.SeedExtension(t, ctx, db, slesX86, slesX86, web, true)
	return web
}

func archBySuffix(label string) string {
	switch {
	case strings.HasSuffix(label, "-x86_64"):
		return "x86_64"
	case strings.HasSuffix(label, "-aarch64"):
		return "aarch64"
	default:
		return ""
	}
}

func TestMandatoryChannelsForLabelArchIsolation(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)
	seedArchSiblings(t, db, ctx)

	got, err := e.MandatoryChannelsForLabel(dbc, "base-x86_64", archBySuffix)
	if err != nil {
		t.Fatalf("MandatoryChannelsForLabel: %v", err)
	}
	if strings.Join(labels(got), ",") != "base-x86_64,updates-x86_64" {
		t.Fatalf("MandatoryChannelsForLabel: unexpected result %v", labels(got))
	}
	for _, c := range got {
		if archBySuffix(c.ChannelLabel) == "aarch64" {
			t.Fatalf("MandatoryChannelsForLabel: cross-arch channel %q returned", c.ChannelLabel)
		}
	}
}

func TestMandatoryChannelsForLabelWithParent(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)
	seedArchSiblings(t, db, ctx)

	got, err := e.MandatoryChannelsForLabel(dbc, "web-x86_64", MapResolver(map[string]string{
		"web-x86_64":     "x86_64",
		"base-x86_64":    "x86_64",
		"updates-x86_64": "x86_64",
		"leak-aarch64":   "aarch64",
	}))
	if err != nil {
		t.Fatalf("MandatoryChannelsForLabel: %v", err)
	}
	if strings.Join(labels(got), ",") != "web-x86_64,base-x86_64,updates-x86_64" {
		t.Fatalf("MandatoryChannelsForLabel: unexpected result %v", labels(got))
	}

	missing, err := e.MandatoryChannelsForLabel(dbc, "nope", archBySuffix)
	if err != nil || len(missing) != 0 {
		t.Fatalf("MandatoryChannelsForLabel (unknown): expected empty, got %v err=%v", labels(missing), err)
	}
}

func TestMandatoryChannelsForLabelOwnerArch(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)
	seedArchSiblings(t, db, ctx)

	got, err := e.MandatoryChannelsByLabels(dbc, []string{"base-aarch64", "nope"}, nil)
	if err != nil {
		t.Fatalf("MandatoryChannelsByLabels: %v", err)
	}
	if strings.Join(got["base-aarch64"], ",") != "base-aarch64,updates-aarch64" {
		t.Fatalf("MandatoryChannelsByLabels: unexpected result %v", got["base-aarch64"])
	}
	if l, ok := got["nope"]; !ok || len(l) != 0 {
		t.Fatalf("MandatoryChannelsByLabels: expected empty entry for unknown label, got %v ok=%v", l, ok)
	}
}

func TestMandatoryChannelsForLabelDeclaredArch(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)
	x86 := testutil.SeedArch(t, ctx, db, "x86_64")
	sles := testutil.SeedProduct(t, ctx, db, 1, "sles", "15", "", x86)
	testutil.SeedChannelArch(t, ctx, db, sles, "base-x86_64", "", "x86_64")
	testutil.SeedChannel(t, ctx, db, sles, "updates-x86_64", "base-x86_64")
	testutil.SeedChannelArch(t, ctx, db, sles, "extras-aarch64", "base-x86_64", "aarch64")

	got, err := e.MandatoryChannelsByLabels(dbc, []string{"base-x86_64"}, nil)
	if err != nil {
		t.Fatalf("MandatoryChannelsByLabels: %v", err)
	}
	if strings.Join(got["base-x86_64"], ",") != "base-x86_64,updates-x86_64" {
		t.Fatalf("MandatoryChannelsByLabels: aarch64 channel leaked into x86_64 closure: %v", got["base-x86_64"])
	}
}

func TestMandatoryChannelsBlankAnchor(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)
	p := testutil.SeedProduct(t, ctx, db, 1, "p", "1", "", nil)
	testutil.SeedChannel(t, ctx, db, p, "pool", "")
	testutil.SeedChannel(t, ctx, db, p, "updates", "pool")

	for _, anchor := range []string{"", "  "} {
		got, err := e.MandatoryChannels(dbc, p.ID, p.ID, anchor)
		if err != nil {
			t.Fatalf("MandatoryChannels(%q): %v", anchor, err)
		}
		if len(got) != 0 {
			t.Fatalf("MandatoryChannels(%q): expected no channels, got %v", anchor, labels(got))
		}
	}
}

func TestMandatoryChannelsForLabelMissingParent(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)
	p := testutil.SeedProduct(t, ctx, db, 1, "p", "1", "", nil)
	testutil.SeedChannel(t, ctx, db, p, "orphan", "gone")

	_, err := e.MandatoryChannelsForLabel(dbc, "orphan", archBySuffix)
	if !types.IsCode(err, types.CodeReferentialViolation) {
		t.Fatalf("MandatoryChannelsForLabel: expected referential violation, got %v", err)
	}
}

func TestExtensionTree(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)

	sles := testutil.SeedProduct(t, ctx, db, 1, "sles", "15", "", nil)
	base := testutil.SeedProduct(t, ctx, db, 2, "sle-module-basesystem", "15", "", nil)
	desktop := testutil.SeedProduct(t, ctx, db, 3, "sle-module-desktop", "15", "", nil)
	we := testutil.SeedProduct(t, ctx, db, 4, "sle-we", "15", "", nil)
	testutil.SeedExtension(t, ctx, db, sles, sles, base, true)
	testutil.SeedExtension(t, ctx, db, sles, base, desktop, false)
	testutil.SeedExtension(t, ctx, db, sles, desktop, we, true)

	tree, ok, err := e.ExtensionTree(dbc, sles.ID)
	if err != nil || !ok {
		t.Fatalf("ExtensionTree: ok=%v err=%v", ok, err)
	}
	if tree.Product.ID != sles.ID || len(tree.Extensions) != 1 {
		t.Fatalf("ExtensionTree: unexpected root %+v", tree)
	}
	bs := tree.Extensions[0]
	if bs.Product.ID != base.ID || !bs.Recommended || len(bs.Extensions) != 1 {
		t.Fatalf("ExtensionTree: unexpected basesystem node %+v", bs)
	}
	dt := bs.Extensions[0]
	if dt.Product.ID != desktop.ID || dt.Recommended || len(dt.Extensions) != 1 || dt.Extensions[0].Product.ID != we.ID {
		t.Fatalf("ExtensionTree: unexpected desktop node %+v", dt)
	}

	if _, ok, err := e.ExtensionTree(dbc, we.ID); err != nil || !ok {
		t.Fatalf("ExtensionTree (leaf root): ok=%v err=%v", ok, err)
	}
}

func TestNeighborQueries(t *testing.T) {
	e, db, ctx, dbc := newEngine(t)

	sles := testutil.SeedProduct(t, ctx, db, 1, "sles", "15", "", nil)
	sled := testutil.SeedProduct(t, ctx, db, 2, "sled", "15", "", nil)
	base := testutil.SeedProduct(t, ctx, db, 3, "sle-module-basesystem", "15", "", nil)
	old := testutil.SeedProduct(t, ctx, db, 4, "sles", "12", "", nil)
	testutil.SeedExtension(t, ctx, db, sles, sles, base, true)
	testutil.SeedExtension(t, ctx, db, sled, sled, base, false)
	testutil.SeedUpgrade(t, ctx, db, old, sles)

	roots, err := e.RootProductsOf(dbc, base.ID)
	if err != nil || len(roots) != 2 {
		t.Fatalf("RootProductsOf: got %d err=%v", len(roots), err)
	}
	bases, err := e.BaseProductsOf(dbc, base.ID, &sled.ID)
	if err != nil || len(bases) != 1 || bases[0].ID != sled.ID {
		t.Fatalf("BaseProductsOf: unexpected %+v err=%v", bases, err)
	}
	exts, err := e.ExtensionProductsOf(dbc, sles.ID, nil)
	if err != nil || len(exts) != 1 || exts[0].ID != base.ID {
		t.Fatalf("ExtensionProductsOf: unexpected %+v err=%v", exts, err)
	}
	targets, err := e.UpgradeTargetsOf(dbc, old.ID)
	if err != nil || len(targets) != 1 || targets[0].ID != sles.ID {
		t.Fatalf("UpgradeTargetsOf: unexpected %+v err=%v", targets, err)
	}
	sources, err := e.UpgradeSourcesOf(dbc, sles.ID)
	if err != nil || len(sources) != 1 || sources[0].ID != old.ID {
		t.Fatalf("UpgradeSourcesOf: unexpected %+v err=%v", sources, err)
	}
	rec, err := e.RecommendedExtensions(dbc)
	if err != nil || len(rec) != 1 {
		t.Fatalf("RecommendedExtensions: got %d err=%v", len(rec), err)
	}
}

func TestSameArch(t *testing.T) {
	resolve := MapResolver(map[string]string{"a": "x86_64", "b": "x86_64", "c": "s390x"})
	if !SameArch(resolve, "a", "b") || SameArch(resolve, "a", "c") {
		t.Fatalf("SameArch: unexpected result")
	}
	if !SameArch(resolve, "unknown", "other-unknown") {
		t.Fatalf("SameArch: unknown labels should resolve alike")
	}
}
