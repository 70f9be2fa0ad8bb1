package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/catalog-backend/internal/data/repos/testutil"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/pkg/pointers"
)

func TestProductChannelRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	x86 := testutil.SeedArch(t, ctx, db, "x86_64")
	sles := testutil.SeedProduct(t, ctx, db, 1, "sles", "15", "", x86)
	testutil.SeedChannel(t, ctx, db, sles, "sles15-pool", "")
	testutil.SeedChannel(t, ctx, db, sles, "sles15-updates", "sles15-pool")

	repo := NewProductChannelRepo(db, testutil.Logger(t))

	first, ok, err := repo.FindFirstByChannelLabel(dbc, "sles15-updates")
	if err != nil || !ok {
		t.Fatalf("FindFirstByChannelLabel: ok=%v err=%v", ok, err)
	}
	if first.Product == nil || first.Product.ID != sles.ID {
		t.Fatalf("FindFirstByChannelLabel: product not loaded: %+v", first)
	}
	if first.Product.ArchLabel() != "x86_64" || len(first.Product.Channels) != 2 {
		t.Fatalf("FindFirstByChannelLabel: expected arch and 2 channels, got %q %d", first.Product.ArchLabel(), len(first.Product.Channels))
	}
	if first.ParentLabel() != "sles15-pool" {
		t.Fatalf("FindFirstByChannelLabel: unexpected parent %q", first.ParentLabel())
	}

	if _, ok, err := repo.FindFirstByChannelLabel(dbc, "nope"); err != nil || ok {
		t.Fatalf("FindFirstByChannelLabel (missing): ok=%v err=%v", ok, err)
	}

	got, ok, err := repo.Lookup(dbc, "sles15-pool", 1)
	if err != nil || !ok || got.ChannelLabel != "sles15-pool" {
		t.Fatalf("Lookup: ok=%v err=%v got=%+v", ok, err, got)
	}
	if _, ok, _ := repo.Lookup(dbc, "sles15-pool", 2); ok {
		t.Fatalf("Lookup: expected no channel for unknown product")
	}

	if err := repo.UpdateLabels(dbc, got.ID, pointers.String("sles15-updates"), pointers.String("x86_64")); err != nil {
		t.Fatalf("UpdateLabels: %v", err)
	}
	byProduct, err := repo.GetByProductIDs(dbc, []uuid.UUID{sles.ID})
	if err != nil {
		t.Fatalf("GetByProductIDs: %v", err)
	}
	if len(byProduct) != 2 {
		t.Fatalf("GetByProductIDs: expected 2, got %d", len(byProduct))
	}
	for _, c := range byProduct {
		if c.ID == got.ID && (c.ParentLabel() != "sles15-updates" || c.ArchLabel() != "x86_64") {
			t.Fatalf("UpdateLabels: labels not stored, got parent=%q arch=%q", c.ParentLabel(), c.ArchLabel())
		}
	}
}

func TestProductChannelRepoArchLabels(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	x86 := testutil.SeedArch(t, ctx, db, "x86_64")
	arm := testutil.SeedArch(t, ctx, db, "aarch64")
	slesX86 := testutil.SeedProduct(t, ctx, db, 1, "sles", "15", "", x86)
	slesArm := testutil.SeedProduct(t, ctx, db, 2, "sles", "15", "", arm)
	noarch := testutil.SeedProduct(t, ctx, db, 3, "sle-manager-tools", "15", "", nil)
	testutil.SeedChannel(t, ctx, db, slesX86, "sles15-pool-x86_64", "")
	testutil.SeedChannel(t, ctx, db, slesArm, "sles15-pool-aarch64", "")
	testutil.SeedChannel(t, ctx, db, noarch, "manager-tools", "")
	extras := testutil.SeedChannel(t, ctx, db, slesX86, "sles15-extras-aarch64", "sles15-pool-x86_64")

	repo := NewProductChannelRepo(db, testutil.Logger(t))
	if err := repo.UpdateLabels(dbc, extras.ID, extras.ParentChannelLabel, pointers.String("aarch64")); err != nil {
		t.Fatalf("UpdateLabels: %v", err)
	}
	got, err := repo.ArchLabels(dbc, []string{"sles15-pool-x86_64", "sles15-pool-aarch64", "manager-tools", "sles15-extras-aarch64", "unknown"})
	if err != nil {
		t.Fatalf("ArchLabels: %v", err)
	}
	if got["sles15-pool-x86_64"] != "x86_64" || got["sles15-pool-aarch64"] != "aarch64" {
		t.Fatalf("ArchLabels: unexpected result: %+v", got)
	}
	if got["sles15-extras-aarch64"] != "aarch64" {
		t.Fatalf("ArchLabels: declared channel arch must win over product arch, got %q", got["sles15-extras-aarch64"])
	}
	if arch, ok := got["manager-tools"]; !ok || arch != "" {
		t.Fatalf("ArchLabels: expected empty arch for noarch product, got %q ok=%v", arch, ok)
	}
	if _, ok := got["unknown"]; ok {
		t.Fatalf("ArchLabels: unexpected entry for unknown label")
	}
}
