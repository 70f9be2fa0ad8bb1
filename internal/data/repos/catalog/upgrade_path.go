package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type UpgradePathRepo interface {
	Create(dbc dbctx.Context, paths []*types.UpgradePath) ([]*types.UpgradePath, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)

	All(dbc dbctx.Context) ([]*types.UpgradePath, error)
	Find(dbc dbctx.Context, key types.UpgradeKey) (*types.UpgradePath, bool, error)
	TargetsOf(dbc dbctx.Context, fromID uuid.UUID) ([]*types.Product, error)
	SourcesOf(dbc dbctx.Context, toID uuid.UUID) ([]*types.Product, error)
}

type upgradePathRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUpgradePathRepo(db *gorm.DB, baseLog *logger.Logger) UpgradePathRepo {
	return &upgradePathRepo{db: db, log: baseLog.With("repo", "UpgradePathRepo")}
}

func (r *upgradePathRepo) Create(dbc dbctx.Context, paths []*types.UpgradePath) ([]*types.UpgradePath, error) {
	if len(paths) == 0 {
		return []*types.UpgradePath{}, nil
	}
	if err := dbc.DB(r.db).Omit("FromProduct", "ToProduct").Create(&paths).Error; err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *upgradePathRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.UpgradePath{})
	return res.RowsAffected, res.Error
}

func (r *upgradePathRepo) All(dbc dbctx.Context) ([]*types.UpgradePath, error) {
	var out []*types.UpgradePath
	if err := dbc.DB(r.db).Order(edgeOrder).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *upgradePathRepo) Find(dbc dbctx.Context, key types.UpgradeKey) (*types.UpgradePath, bool, error) {
	var out []*types.UpgradePath
	if err := dbc.DB(r.db).
		Where("from_product_id = ? AND to_product_id = ?", key.From, key.To).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out[0], true, nil
}

func (r *upgradePathRepo) TargetsOf(dbc dbctx.Context, fromID uuid.UUID) ([]*types.Product, error) {
	sub := dbc.DB(r.db).Model(&types.UpgradePath{}).Select("to_product_id").Where("from_product_id = ?", fromID)
	return r.productsIn(dbc, sub)
}

func (r *upgradePathRepo) SourcesOf(dbc dbctx.Context, toID uuid.UUID) ([]*types.Product, error) {
	sub := dbc.DB(r.db).Model(&types.UpgradePath{}).Select("from_product_id").Where("to_product_id = ?", toID)
	return r.productsIn(dbc, sub)
}

func (r *upgradePathRepo) productsIn(dbc dbctx.Context, ids *gorm.DB) ([]*types.Product, error) {
	var out []*types.Product
	if err := dbc.DB(r.db).Preload("Arch").Where("id IN (?)", ids).Order(productOrder).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
