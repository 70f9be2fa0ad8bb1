package catalog

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type ProductChannelRepo interface {
	Create(dbc dbctx.Context, channels []*types.ProductChannel) ([]*types.ProductChannel, error)
	UpdateLabels(dbc dbctx.Context, id uuid.UUID, parent, arch *string) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)

	All(dbc dbctx.Context) ([]*types.ProductChannel, error)
	GetByProductIDs(dbc dbctx.Context, productIDs []uuid.UUID) ([]*types.ProductChannel, error)
	FindFirstByChannelLabel(dbc dbctx.Context, label string) (*types.ProductChannel, bool, error)
	Lookup(dbc dbctx.Context, label string, externalProductID int64) (*types.ProductChannel, bool, error)
	// ArchLabels maps each label to the arch of the oldest channel row carrying it:
	// the channel's declared arch, else the arch of its product. Labels with
	// neither map to "".
	ArchLabels(dbc dbctx.Context, labels []string) (map[string]string, error)
}

type productChannelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductChannelRepo(db *gorm.DB, baseLog *logger.Logger) ProductChannelRepo {
	return &productChannelRepo{db: db, log: baseLog.With("repo", "ProductChannelRepo")}
}

func (r *productChannelRepo) Create(dbc dbctx.Context, channels []*types.ProductChannel) ([]*types.ProductChannel, error) {
	if len(channels) == 0 {
		return []*types.ProductChannel{}, nil
	}
	if err := dbc.DB(r.db).Omit("Product").Create(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// UpdateLabels rewrites the parent label and declared arch of one channel row.
func (r *productChannelRepo) UpdateLabels(dbc dbctx.Context, id uuid.UUID, parent, arch *string) error {
	return dbc.DB(r.db).
		Model(&types.ProductChannel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"parent_channel_label": parent,
			"arch":                 arch,
		}).Error
}

func (r *productChannelRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.ProductChannel{})
	return res.RowsAffected, res.Error
}

func (r *productChannelRepo) All(dbc dbctx.Context) ([]*types.ProductChannel, error) {
	var out []*types.ProductChannel
	if err := dbc.DB(r.db).Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productChannelRepo) GetByProductIDs(dbc dbctx.Context, productIDs []uuid.UUID) ([]*types.ProductChannel, error) {
	var out []*types.ProductChannel
	if len(productIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("product_id IN ?", productIDs).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindFirstByChannelLabel returns the oldest product channel carrying label, with
// its owning product, the product's arch and the product's channels loaded.
func (r *productChannelRepo) FindFirstByChannelLabel(dbc dbctx.Context, label string) (*types.ProductChannel, bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, false, nil
	}
	var out []*types.ProductChannel
	if err := dbc.DB(r.db).
		Preload("Product.Arch").
		Preload("Product.Channels", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("channel_label = ?", label).
		Order("created_at ASC, id ASC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out[0], true, nil
}

// Lookup finds the channel with label on the product carrying externalProductID.
func (r *productChannelRepo) Lookup(dbc dbctx.Context, label string, externalProductID int64) (*types.ProductChannel, bool, error) {
	var out []*types.ProductChannel
	if err := dbc.DB(r.db).
		Preload("Product.Arch").
		Joins("JOIN product ON product.id = product_channel.product_id").
		Where("product_channel.channel_label = ? AND product.external_id = ?", strings.TrimSpace(label), externalProductID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out[0], true, nil
}

func (r *productChannelRepo) ArchLabels(dbc dbctx.Context, labels []string) (map[string]string, error) {
	out := make(map[string]string, len(labels))
	if len(labels) == 0 {
		return out, nil
	}
	var rows []struct {
		ChannelLabel string
		ArchLabel    *string
	}
	if err := dbc.DB(r.db).
		Table("product_channel").
		Select("product_channel.channel_label AS channel_label, COALESCE(product_channel.arch, package_arch.label) AS arch_label").
		Joins("JOIN product ON product.id = product_channel.product_id").
		Joins("LEFT JOIN package_arch ON package_arch.id = product.arch_id").
		Where("product_channel.channel_label IN ?", labels).
		Order("product_channel.created_at ASC, product_channel.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, ok := out[row.ChannelLabel]; ok {
			continue
		}
		arch := ""
		if row.ArchLabel != nil {
			arch = *row.ArchLabel
		}
		out[row.ChannelLabel] = arch
	}
	return out, nil
}
