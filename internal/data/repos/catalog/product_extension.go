package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

const edgeOrder = "created_at ASC, id ASC"

type ProductExtensionRepo interface {
	Create(dbc dbctx.Context, edges []*types.ProductExtension) ([]*types.ProductExtension, error)
	UpdateRecommended(dbc dbctx.Context, id uuid.UUID, recommended bool) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)

	All(dbc dbctx.Context) ([]*types.ProductExtension, error)
	Find(dbc dbctx.Context, key types.ExtensionKey) (*types.ProductExtension, bool, error)
	GetByRoot(dbc dbctx.Context, rootID uuid.UUID) ([]*types.ProductExtension, error)
	Recommended(dbc dbctx.Context) ([]*types.ProductExtension, error)

	// BaseProductsOf lists distinct products that extID extends, optionally limited
	// to edges anchored at rootID.
	BaseProductsOf(dbc dbctx.Context, extID uuid.UUID, rootID *uuid.UUID) ([]*types.Product, error)
	// RootProductsOf lists distinct root anchors of edges whose extension is extID.
	RootProductsOf(dbc dbctx.Context, extID uuid.UUID) ([]*types.Product, error)
	// ExtensionProductsOf lists distinct extensions of baseID, optionally limited to
	// edges anchored at rootID.
	ExtensionProductsOf(dbc dbctx.Context, baseID uuid.UUID, rootID *uuid.UUID) ([]*types.Product, error)
}

type productExtensionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductExtensionRepo(db *gorm.DB, baseLog *logger.Logger) ProductExtensionRepo {
	return &productExtensionRepo{db: db, log: baseLog.With("repo", "ProductExtensionRepo")}
}

func (r *productExtensionRepo) Create(dbc dbctx.Context, edges []*types.ProductExtension) ([]*types.ProductExtension, error) {
	if len(edges) == 0 {
		return []*types.ProductExtension{}, nil
	}
	// Recommended=false must be written explicitly, not skipped in favour of the column default.
	if err := dbc.DB(r.db).
		Select("ID", "RootProductID", "BaseProductID", "ExtensionProductID", "Recommended", "CreatedAt", "UpdatedAt").
		Create(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

func (r *productExtensionRepo) UpdateRecommended(dbc dbctx.Context, id uuid.UUID, recommended bool) error {
	return dbc.DB(r.db).
		Model(&types.ProductExtension{}).
		Where("id = ?", id).
		Update("recommended", recommended).Error
}

func (r *productExtensionRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.ProductExtension{})
	return res.RowsAffected, res.Error
}

func (r *productExtensionRepo) All(dbc dbctx.Context) ([]*types.ProductExtension, error) {
	var out []*types.ProductExtension
	if err := dbc.DB(r.db).Order(edgeOrder).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productExtensionRepo) Find(dbc dbctx.Context, key types.ExtensionKey) (*types.ProductExtension, bool, error) {
	var out []*types.ProductExtension
	if err := dbc.DB(r.db).
		Where("root_product_id = ? AND base_product_id = ? AND extension_product_id = ?", key.Root, key.Base, key.Extension).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out[0], true, nil
}

func (r *productExtensionRepo) GetByRoot(dbc dbctx.Context, rootID uuid.UUID) ([]*types.ProductExtension, error) {
	var out []*types.ProductExtension
	if err := dbc.DB(r.db).
		Preload("ExtensionProduct.Arch").
		Where("root_product_id = ?", rootID).
		Order(edgeOrder).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productExtensionRepo) Recommended(dbc dbctx.Context) ([]*types.ProductExtension, error) {
	var out []*types.ProductExtension
	if err := dbc.DB(r.db).
		Preload("RootProduct.Arch").
		Preload("BaseProduct.Arch").
		Preload("ExtensionProduct.Arch").
		Where("recommended = ?", true).
		Order(edgeOrder).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productExtensionRepo) BaseProductsOf(dbc dbctx.Context, extID uuid.UUID, rootID *uuid.UUID) ([]*types.Product, error) {
	sub := dbc.DB(r.db).Model(&types.ProductExtension{}).
		Select("base_product_id").
		Where("extension_product_id = ?", extID)
	if rootID != nil {
		sub = sub.Where("root_product_id = ?", *rootID)
	}
	return r.productsIn(dbc, sub)
}

func (r *productExtensionRepo) RootProductsOf(dbc dbctx.Context, extID uuid.UUID) ([]*types.Product, error) {
	sub := dbc.DB(r.db).Model(&types.ProductExtension{}).
		Select("root_product_id").
		Where("extension_product_id = ?", extID)
	return r.productsIn(dbc, sub)
}

func (r *productExtensionRepo) ExtensionProductsOf(dbc dbctx.Context, baseID uuid.UUID, rootID *uuid.UUID) ([]*types.Product, error) {
	sub := dbc.DB(r.db).Model(&types.ProductExtension{}).
		Select("extension_product_id").
		Where("base_product_id = ?", baseID)
	if rootID != nil {
		sub = sub.Where("root_product_id = ?", *rootID)
	}
	return r.productsIn(dbc, sub)
}

// productsIn loads each product once, whatever number of edges reference it.
func (r *productExtensionRepo) productsIn(dbc dbctx.Context, ids *gorm.DB) ([]*types.Product, error) {
	var out []*types.Product
	if err := dbc.DB(r.db).
		Preload("Arch").
		Where("id IN (?)", ids).
		Order(productOrder).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
