package catalog

import (
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type PackageArchRepo interface {
	GetByLabel(dbc dbctx.Context, label string) (*types.PackageArch, bool, error)
	GetByLabels(dbc dbctx.Context, labels []string) ([]*types.PackageArch, error)
	EnsureLabels(dbc dbctx.Context, labels []string) (map[string]*types.PackageArch, error)
	All(dbc dbctx.Context) ([]*types.PackageArch, error)
}

type packageArchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPackageArchRepo(db *gorm.DB, baseLog *logger.Logger) PackageArchRepo {
	return &packageArchRepo{db: db, log: baseLog.With("repo", "PackageArchRepo")}
}

func (r *packageArchRepo) GetByLabel(dbc dbctx.Context, label string) (*types.PackageArch, bool, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil, false, nil
	}
	var out []*types.PackageArch
	if err := dbc.DB(r.db).Where("label = ?", label).Limit(1).Find(&out).Error; err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out[0], true, nil
}

func (r *packageArchRepo) GetByLabels(dbc dbctx.Context, labels []string) ([]*types.PackageArch, error) {
	var out []*types.PackageArch
	labels = normalizeLabels(labels)
	if len(labels) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("label IN ?", labels).Order("label ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureLabels creates any missing arch labels and returns all of them keyed by label.
func (r *packageArchRepo) EnsureLabels(dbc dbctx.Context, labels []string) (map[string]*types.PackageArch, error) {
	labels = normalizeLabels(labels)
	out := make(map[string]*types.PackageArch, len(labels))
	if len(labels) == 0 {
		return out, nil
	}
	existing, err := r.GetByLabels(dbc, labels)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		out[a.Label] = a
	}
	var missing []*types.PackageArch
	for _, l := range labels {
		if _, ok := out[l]; !ok {
			missing = append(missing, &types.PackageArch{Label: l, Name: l})
		}
	}
	if len(missing) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "label"}}, DoNothing: true}).
		Create(&missing).Error; err != nil {
		return nil, err
	}
	r.log.Debug("Created package arches", "count", len(missing))

	// Re-read so rows created concurrently carry their stored ids.
	all, err := r.GetByLabels(dbc, labels)
	if err != nil {
		return nil, err
	}
	for _, a := range all {
		out[a.Label] = a
	}
	return out, nil
}

func (r *packageArchRepo) All(dbc dbctx.Context) ([]*types.PackageArch, error) {
	var out []*types.PackageArch
	if err := dbc.DB(r.db).Order("label ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
