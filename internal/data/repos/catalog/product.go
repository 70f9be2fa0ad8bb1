package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

// productOrder is the ascending natural-key order used by every product listing.
const productOrder = `name ASC, version ASC, "release" ASC, arch_id ASC`

// IdentQuery is an already-normalized identity lookup.
//
// A nil Version/Release means the caller did not specify it, so only stored NULLs
// match. With Imprecise set, a specified value also matches stored NULLs.
// ArchSpecified with a nil ArchID means the caller named an arch label the arch
// catalog does not know.
type IdentQuery struct {
	Name          string
	Version       *string
	Release       *string
	ArchSpecified bool
	ArchID        *uuid.UUID
	Imprecise     bool
}

type ProductRepo interface {
	Create(dbc dbctx.Context, products []*types.Product) ([]*types.Product, error)
	Update(dbc dbctx.Context, product *types.Product) error

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, bool, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error)
	GetByExternalID(dbc dbctx.Context, externalID int64) (*types.Product, bool, error)
	ByExternalIDs(dbc dbctx.Context) (map[int64]*types.Product, error)
	All(dbc dbctx.Context) ([]*types.Product, error)
	FindByIdent(dbc dbctx.Context, q IdentQuery) (*types.Product, bool, error)

	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
	DeleteAllExcept(dbc dbctx.Context, keep []uuid.UUID) (int64, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(dbc dbctx.Context, products []*types.Product) ([]*types.Product, error) {
	if len(products) == 0 {
		return []*types.Product{}, nil
	}
	if err := dbc.DB(r.db).Omit("Arch", "Channels").Create(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) Update(dbc dbctx.Context, product *types.Product) error {
	if product == nil || product.ID == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"external_id":   product.ExternalID,
			"name":          product.Name,
			"version":       product.Version,
			"release":       product.Release,
			"arch_id":       product.ArchID,
			"friendly_name": product.FriendlyName,
		}).Error
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, bool, error) {
	if id == uuid.Nil {
		return nil, false, nil
	}
	out, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(out) == 0 {
		return nil, false, err
	}
	return out[0], true, nil
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error) {
	var out []*types.Product
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Preload("Arch").
		Where("id IN ?", ids).
		Order(productOrder).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) GetByExternalID(dbc dbctx.Context, externalID int64) (*types.Product, bool, error) {
	var out []*types.Product
	if err := dbc.DB(r.db).
		Preload("Arch").
		Where("external_id = ?", externalID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out[0], true, nil
}

func (r *productRepo) ByExternalIDs(dbc dbctx.Context) (map[int64]*types.Product, error) {
	all, err := r.All(dbc)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*types.Product, len(all))
	for _, p := range all {
		out[p.ExternalID] = p
	}
	return out, nil
}

func (r *productRepo) All(dbc dbctx.Context) ([]*types.Product, error) {
	var out []*types.Product
	if err := dbc.DB(r.db).Preload("Arch").Order(productOrder).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindByIdent returns the first product satisfying q in natural-key order. When
// several rows match, the first one wins; callers must tolerate that choice.
func (r *productRepo) FindByIdent(dbc dbctx.Context, q IdentQuery) (*types.Product, bool, error) {
	if q.Name == "" {
		return nil, false, nil
	}
	// A named but unknown arch can only ever match a stored NULL, and only when imprecise.
	if q.ArchSpecified && q.ArchID == nil && !q.Imprecise {
		return nil, false, nil
	}

	t := dbc.DB(r.db).Preload("Arch").Where("name = ?", q.Name)
	t = t.Where(nullableMatch(r.db, `version`, q.Version, q.Imprecise))
	t = t.Where(nullableMatch(r.db, `"release"`, q.Release, q.Imprecise))

	switch {
	case !q.ArchSpecified:
		t = t.Where("arch_id IS NULL")
	case q.ArchID == nil:
		t = t.Where("arch_id IS NULL")
	case q.Imprecise:
		t = t.Where(r.db.Where("arch_id = ?", *q.ArchID).Or("arch_id IS NULL"))
	default:
		t = t.Where("arch_id = ?", *q.ArchID)
	}

	var out []*types.Product
	if err := t.Order(productOrder).Limit(1).Find(&out).Error; err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out[0], true, nil
}

func nullableMatch(db *gorm.DB, column string, value *string, imprecise bool) *gorm.DB {
	switch {
	case value == nil:
		return db.Where(column + " IS NULL")
	case imprecise:
		return db.Where(column+" = ?", *value).Or(column + " IS NULL")
	default:
		return db.Where(column+" = ?", *value)
	}
}

// DeleteByIDs removes products together with their channels and every edge that
// references them.
func (r *productRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	t := dbc.DB(r.db)
	if err := t.Where("product_id IN ?", ids).Delete(&types.ProductChannel{}).Error; err != nil {
		return 0, err
	}
	if err := t.Where("root_product_id IN ? OR base_product_id IN ? OR extension_product_id IN ?", ids, ids, ids).
		Delete(&types.ProductExtension{}).Error; err != nil {
		return 0, err
	}
	if err := t.Where("from_product_id IN ? OR to_product_id IN ?", ids, ids).
		Delete(&types.UpgradePath{}).Error; err != nil {
		return 0, err
	}
	res := t.Where("id IN ?", ids).Delete(&types.Product{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// DeleteAllExcept removes every product whose id is not in keep.
func (r *productRepo) DeleteAllExcept(dbc dbctx.Context, keep []uuid.UUID) (int64, error) {
	var doomed []uuid.UUID
	q := dbc.DB(r.db).Model(&types.Product{})
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	if err := q.Pluck("id", &doomed).Error; err != nil {
		return 0, err
	}
	n, err := r.DeleteByIDs(dbc, doomed)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.Info("Removed products not in retained set", "removed", n, "retained", len(keep))
	}
	return n, nil
}
