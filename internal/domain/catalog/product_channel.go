package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductChannel binds a product to a channel label. ParentChannelLabel is the
// label of the channel's base channel in the channel hierarchy, nil for base
// channels. Arch is the architecture declared for the channel itself, nil when
// the source did not declare one.
type ProductChannel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_channel,priority:1" json:"product_id"`
	Product            *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	ChannelLabel       string    `gorm:"column:channel_label;not null;index;uniqueIndex:idx_product_channel,priority:2" json:"channel_label"`
	ParentChannelLabel *string   `gorm:"column:parent_channel_label;index" json:"parent_channel_label,omitempty"`
	Arch               *string   `gorm:"column:arch" json:"arch,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProductChannel) TableName() string { return "product_channel" }

func (c *ProductChannel) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *ProductChannel) Key() ChannelKey {
	return ChannelKey{Product: c.ProductID, Label: c.ChannelLabel}
}

// ArchLabel returns the declared channel arch or "".
func (c *ProductChannel) ArchLabel() string {
	if c == nil || c.Arch == nil {
		return ""
	}
	return *c.Arch
}

// ParentLabel returns the parent channel label or "".
func (c *ProductChannel) ParentLabel() string {
	if c == nil || c.ParentChannelLabel == nil {
		return ""
	}
	return *c.ParentChannelLabel
}
