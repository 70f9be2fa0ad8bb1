package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UpgradePath states that FromProduct can be upgraded to ToProduct.
type UpgradePath struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FromProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_upgrade_path,priority:1" json:"from_product_id"`
	ToProductID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_upgrade_path,priority:2" json:"to_product_id"`

	FromProduct *Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:FromProductID;references:ID" json:"from_product,omitempty"`
	ToProduct   *Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:ToProductID;references:ID" json:"to_product,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (UpgradePath) TableName() string { return "upgrade_path" }

func (u *UpgradePath) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *UpgradePath) Key() UpgradeKey {
	return UpgradeKey{From: u.FromProductID, To: u.ToProductID}
}
