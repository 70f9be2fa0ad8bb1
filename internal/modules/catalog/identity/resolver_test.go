package identity

import (
	"context"
	"testing"

	"github.com/yungbote/catalog-backend/internal/data/repos"
	"github.com/yungbote/catalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/pkg/pointers"
)

func newResolver(t *testing.T) (*Resolver, dbctx.Context, func() (*types.PackageArch, *types.Product, *types.Product)) {
	t.Helper()
	db := testutil.DB(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	r := NewResolver(repos.NewPackageArchRepo(db, log), repos.NewProductRepo(db, log), log)
	seed := func() (*types.PackageArch, *types.Product, *types.Product) {
		x86 := testutil.SeedArch(t, ctx, db, "x86_64")
		sles := testutil.SeedProduct(t, ctx, db, 1, "sles", "15", "", x86)
		unversioned := testutil.SeedProduct(t, ctx, db, 2, "sle-hpc", "", "", x86)
		return x86, sles, unversioned
	}
	return r, dbctx.Context{Ctx: ctx}, seed
}

func TestFindProductImpreciseVersion(t *testing.T) {
	r, dbc, seed := newResolver(t)
	_, _, unversioned := seed()

	ident := types.ProductIdent{Name: "SLE-HPC", Version: pointers.String("15"), Arch: pointers.String("X86_64")}

	if _, ok, err := r.FindProduct(dbc, ident, false); err != nil || ok {
		t.Fatalf("FindProduct precise: expected miss, ok=%v err=%v", ok, err)
	}
	got, ok, err := r.FindProduct(dbc, ident, true)
	if err != nil {
		t.Fatalf("FindProduct imprecise: %v", err)
	}
	if !ok || got.ID != unversioned.ID {
		t.Fatalf("FindProduct imprecise: expected %s, got ok=%v %+v", unversioned.ID, ok, got)
	}
}

func TestFindProductNormalizesInput(t *testing.T) {
	r, dbc, seed := newResolver(t)
	_, sles, _ := seed()

	got, ok, err := r.FindProduct(dbc, types.ProductIdent{
		Name:    "  SLES ",
		Version: pointers.String("15"),
		Release: pointers.String(" "),
		Arch:    pointers.String("x86_64"),
	}, false)
	if err != nil {
		t.Fatalf("FindProduct: %v", err)
	}
	if !ok || got.ID != sles.ID {
		t.Fatalf("FindProduct: expected %s, got ok=%v", sles.ID, ok)
	}
}

func TestFindProductUnknownArch(t *testing.T) {
	r, dbc, seed := newResolver(t)
	seed()

	ident := types.ProductIdent{Name: "sles", Version: pointers.String("15"), Arch: pointers.String("ppc64le")}
	for _, imprecise := range []bool{false, true} {
		if _, ok, err := r.FindProduct(dbc, ident, imprecise); err != nil || ok {
			t.Fatalf("FindProduct(imprecise=%v): expected miss, ok=%v err=%v", imprecise, ok, err)
		}
	}
}

func TestFindProductRequiresName(t *testing.T) {
	r, dbc, _ := newResolver(t)
	_, _, err := r.FindProduct(dbc, types.ProductIdent{Name: " "}, true)
	if !types.IsCode(err, types.CodeValidation) {
		t.Fatalf("FindProduct: expected validation error, got %v", err)
	}
}

func TestFindProducts(t *testing.T) {
	r, dbc, seed := newResolver(t)
	_, sles, _ := seed()

	idents := []types.ProductIdent{
		{Name: "sles", Version: pointers.String("15"), Arch: pointers.String("x86_64")},
		{Name: "SLES", Version: pointers.String("15"), Arch: pointers.String("x86_64")},
		{Name: "missing"},
	}
	got, err := r.FindProducts(dbc, idents, false)
	if err != nil {
		t.Fatalf("FindProducts: %v", err)
	}
	if len(got) != 1 || got[idents[0].Key()].ID != sles.ID {
		t.Fatalf("FindProducts: unexpected result: %+v", got)
	}
}
