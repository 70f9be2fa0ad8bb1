package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RefreshStatusRunning   = "running"
	RefreshStatusSucceeded = "succeeded"
	RefreshStatusFailed    = "failed"
)

// RefreshRun records one reconciliation of the catalog against an external snapshot.
type RefreshRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Source     string         `gorm:"column:source;not null" json:"source"`
	Status     string         `gorm:"column:status;not null;index" json:"status"`
	Stats      datatypes.JSON `gorm:"column:stats" json:"stats"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	StartedAt  time.Time      `gorm:"column:started_at;not null;index" json:"started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (RefreshRun) TableName() string { return "refresh_run" }

func (r *RefreshRun) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
