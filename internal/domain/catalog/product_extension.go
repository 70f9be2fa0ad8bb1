package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductExtension states that ExtensionProduct attaches to BaseProduct inside the
// tree anchored at RootProduct. The (root, base, extension) triple is unique;
// Recommended is the only mutable field.
type ProductExtension struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RootProductID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_extension,priority:1" json:"root_product_id"`
	BaseProductID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_extension,priority:2" json:"base_product_id"`
	ExtensionProductID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_extension,priority:3" json:"extension_product_id"`
	Recommended        bool      `gorm:"column:recommended;not null;default:false" json:"recommended"`

	RootProduct      *Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:RootProductID;references:ID" json:"root_product,omitempty"`
	BaseProduct      *Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:BaseProductID;references:ID" json:"base_product,omitempty"`
	ExtensionProduct *Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:ExtensionProductID;references:ID" json:"extension_product,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProductExtension) TableName() string { return "product_extension" }

func (e *ProductExtension) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *ProductExtension) Key() ExtensionKey {
	return ExtensionKey{Root: e.RootProductID, Base: e.BaseProductID, Extension: e.ExtensionProductID}
}
