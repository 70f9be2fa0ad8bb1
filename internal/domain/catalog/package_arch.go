package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PackageArch is an entry of the architecture catalog (x86_64, aarch64, ...).
type PackageArch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Label     string    `gorm:"column:label;not null;uniqueIndex" json:"label"`
	Name      string    `gorm:"column:name" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PackageArch) TableName() string { return "package_arch" }

func (a *PackageArch) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
