package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type RefreshRunRepo interface {
	Start(dbc dbctx.Context, source string) (*types.RefreshRun, error)
	Finish(dbc dbctx.Context, id uuid.UUID, status string, stats datatypes.JSON, errMsg string) error
	Latest(dbc dbctx.Context, limit int) ([]*types.RefreshRun, error)
}

type refreshRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRefreshRunRepo(db *gorm.DB, baseLog *logger.Logger) RefreshRunRepo {
	return &refreshRunRepo{db: db, log: baseLog.With("repo", "RefreshRunRepo")}
}

func (r *refreshRunRepo) Start(dbc dbctx.Context, source string) (*types.RefreshRun, error) {
	run := &types.RefreshRun{
		Source:    source,
		Status:    types.RefreshStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := dbc.DB(r.db).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *refreshRunRepo) Finish(dbc dbctx.Context, id uuid.UUID, status string, stats datatypes.JSON, errMsg string) error {
	now := time.Now().UTC()
	return dbc.DB(r.db).
		Model(&types.RefreshRun{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      status,
			"stats":       stats,
			"error":       errMsg,
			"finished_at": &now,
		}).Error
}

func (r *refreshRunRepo) Latest(dbc dbctx.Context, limit int) ([]*types.RefreshRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*types.RefreshRun
	if err := dbc.DB(r.db).Order("started_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
