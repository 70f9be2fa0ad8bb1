package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/catalog-backend/internal/data/repos/testutil"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/pkg/pointers"
)

func TestProductRepoFindByIdent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	x86 := testutil.SeedArch(t, ctx, db, "x86_64")
	sles := testutil.SeedProduct(t, ctx, db, 1000, "sles", "15", "", x86)
	generic := testutil.SeedProduct(t, ctx, db, 1001, "caasp", "4", "", nil)

	repo := NewProductRepo(db, testutil.Logger(t))

	cases := []struct {
		name   string
		q      IdentQuery
		wantID uuid.UUID
	}{
		{
			name:   "exact",
			q:      IdentQuery{Name: "sles", Version: pointers.String("15"), ArchSpecified: true, ArchID: &x86.ID},
			wantID: sles.ID,
		},
		{
			name: "precise release requires stored release",
			q:    IdentQuery{Name: "sles", Version: pointers.String("15"), Release: pointers.String("sp1"), ArchSpecified: true, ArchID: &x86.ID},
		},
		{
			name:   "imprecise release matches stored null",
			q:      IdentQuery{Name: "sles", Version: pointers.String("15"), Release: pointers.String("sp1"), ArchSpecified: true, ArchID: &x86.ID, Imprecise: true},
			wantID: sles.ID,
		},
		{
			name: "unspecified version only matches null",
			q:    IdentQuery{Name: "sles", ArchSpecified: true, ArchID: &x86.ID, Imprecise: true},
		},
		{
			name: "unspecified arch only matches null",
			q:    IdentQuery{Name: "sles", Version: pointers.String("15")},
		},
		{
			name: "unknown arch precise",
			q:    IdentQuery{Name: "caasp", Version: pointers.String("4"), ArchSpecified: true},
		},
		{
			name:   "unknown arch imprecise matches null arch",
			q:      IdentQuery{Name: "caasp", Version: pointers.String("4"), ArchSpecified: true, Imprecise: true},
			wantID: generic.ID,
		},
		{
			name:   "imprecise arch matches null arch",
			q:      IdentQuery{Name: "caasp", Version: pointers.String("4"), ArchSpecified: true, ArchID: &x86.ID, Imprecise: true},
			wantID: generic.ID,
		},
		{
			name: "empty name",
			q:    IdentQuery{Version: pointers.String("15"), Imprecise: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := repo.FindByIdent(dbc, tc.q)
			if err != nil {
				t.Fatalf("FindByIdent: %v", err)
			}
			if tc.wantID == uuid.Nil {
				if ok {
					t.Fatalf("FindByIdent: expected no match, got %s", got.ID)
				}
				return
			}
			if !ok || got.ID != tc.wantID {
				t.Fatalf("FindByIdent: expected %s, got ok=%v %+v", tc.wantID, ok, got)
			}
		})
	}
}

func TestProductRepoLookupsAndDelete(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	x86 := testutil.SeedArch(t, ctx, db, "x86_64")
	base := testutil.SeedProduct(t, ctx, db, 1, "sles", "15", "", x86)
	ext := testutil.SeedProduct(t, ctx, db, 2, "sle-module-basesystem", "15", "", x86)
	other := testutil.SeedProduct(t, ctx, db, 3, "sles", "12", "", x86)
	testutil.SeedChannel(t, ctx, db, base, "sles15-pool", "")
	testutil.SeedChannel(t, ctx, db, ext, "basesystem-pool", "sles15-pool")
	testutil.SeedExtension(t, ctx, db, base, base, ext, true)
	testutil.SeedUpgrade(t, ctx, db, other, base)

	repo := NewProductRepo(db, testutil.Logger(t))

	got, ok, err := repo.GetByExternalID(dbc, 2)
	if err != nil || !ok {
		t.Fatalf("GetByExternalID: ok=%v err=%v", ok, err)
	}
	if got.ID != ext.ID || got.ArchLabel() != "x86_64" {
		t.Fatalf("GetByExternalID: unexpected result: %+v", got)
	}
	if _, ok, err := repo.GetByExternalID(dbc, 99); err != nil || ok {
		t.Fatalf("GetByExternalID (missing): ok=%v err=%v", ok, err)
	}

	byExt, err := repo.ByExternalIDs(dbc)
	if err != nil {
		t.Fatalf("ByExternalIDs: %v", err)
	}
	if len(byExt) != 3 || byExt[3].ID != other.ID {
		t.Fatalf("ByExternalIDs: unexpected result: %+v", byExt)
	}

	n, err := repo.DeleteAllExcept(dbc, []uuid.UUID{base.ID, other.ID})
	if err != nil {
		t.Fatalf("DeleteAllExcept: %v", err)
	}
	if n != 1 {
		t.Fatalf("DeleteAllExcept: expected 1 removed, got %d", n)
	}

	var channels, extensions, upgrades int64
	db.Table("product_channel").Count(&channels)
	db.Table("product_extension").Count(&extensions)
	db.Table("upgrade_path").Count(&upgrades)
	if channels != 1 || extensions != 0 || upgrades != 1 {
		t.Fatalf("DeleteAllExcept: dangling rows channels=%d extensions=%d upgrades=%d", channels, extensions, upgrades)
	}

	all, err := repo.All(dbc)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("All: expected 2 products, got %d", len(all))
	}
}
