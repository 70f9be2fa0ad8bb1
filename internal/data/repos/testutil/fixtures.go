package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
)

func SeedArch(tb testing.TB, ctx context.Context, tx *gorm.DB, label string) *types.PackageArch {
	tb.Helper()
	a := &types.PackageArch{Label: label, Name: label}
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "label"}}, DoNothing: true}).
		Create(a).Error; err != nil {
		tb.Fatalf("seed arch: %v", err)
	}
	var stored types.PackageArch
	if err := tx.WithContext(ctx).Where("label = ?", label).First(&stored).Error; err != nil {
		tb.Fatalf("reload arch: %v", err)
	}
	return &stored
}

// SeedProduct creates a product. arch may be nil; version and release use "" for NULL.
func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, externalID int64, name, version, release string, arch *types.PackageArch) *types.Product {
	tb.Helper()
	p := &types.Product{
		ExternalID:   externalID,
		Name:         name,
		FriendlyName: name,
		Version:      nilIfEmpty(version),
		Release:      nilIfEmpty(release),
	}
	if arch != nil {
		p.ArchID = &arch.ID
		p.Arch = arch
	}
	if err := tx.WithContext(ctx).Omit("Arch", "Channels").Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedChannel(tb testing.TB, ctx context.Context, tx *gorm.DB, product *types.Product, label, parent string) *types.ProductChannel {
	tb.Helper()
	c := &types.ProductChannel{
		ProductID:          product.ID,
		ChannelLabel:       label,
		ParentChannelLabel: nilIfEmpty(parent),
	}
	if err := tx.WithContext(ctx).Omit("Product").Create(c).Error; err != nil {
		tb.Fatalf("seed channel: %v", err)
	}
	return c
}

// SeedChannelArch creates a channel that declares its own arch.
func SeedChannelArch(tb testing.TB, ctx context.Context, tx *gorm.DB, product *types.Product, label, parent, arch string) *types.ProductChannel {
	tb.Helper()
	c := &types.ProductChannel{
		ProductID:          product.ID,
		ChannelLabel:       label,
		ParentChannelLabel: nilIfEmpty(parent),
		Arch:               nilIfEmpty(arch),
	}
	if err := tx.WithContext(ctx).Omit("Product").Create(c).Error; err != nil {
		tb.Fatalf("seed channel: %v", err)
	}
	return c
}

func SeedExtension(tb testing.TB, ctx context.Context, tx *gorm.DB, root, base, ext *types.Product, recommended bool) *types.ProductExtension {
	tb.Helper()
	e := &types.ProductExtension{
		RootProductID:      root.ID,
		BaseProductID:      base.ID,
		ExtensionProductID: ext.ID,
		Recommended:        recommended,
	}
	if err := tx.WithContext(ctx).
		Select("ID", "RootProductID", "BaseProductID", "ExtensionProductID", "Recommended", "CreatedAt", "UpdatedAt").
		Create(e).Error; err != nil {
		tb.Fatalf("seed extension: %v", err)
	}
	return e
}

func SeedUpgrade(tb testing.TB, ctx context.Context, tx *gorm.DB, from, to *types.Product) *types.UpgradePath {
	tb.Helper()
	u := &types.UpgradePath{FromProductID: from.ID, ToProductID: to.ID}
	if err := tx.WithContext(ctx).Omit("FromProduct", "ToProduct").Create(u).Error; err != nil {
		tb.Fatalf("seed upgrade path: %v", err)
	}
	return u
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
