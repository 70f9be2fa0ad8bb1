package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a named, versioned release (operating system or extension) for one
// architecture. Name, Version and Release are stored lowercased; nil means the
// upstream data did not specify the field.
type Product struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID   int64        `gorm:"column:external_id;not null;uniqueIndex" json:"product_id"`
	Name         string       `gorm:"column:name;not null;index:idx_product_ident,priority:1" json:"name"`
	Version      *string      `gorm:"column:version;index:idx_product_ident,priority:2" json:"version,omitempty"`
	Release      *string      `gorm:"column:release;index:idx_product_ident,priority:3" json:"release,omitempty"`
	ArchID       *uuid.UUID   `gorm:"type:uuid;column:arch_id;index:idx_product_ident,priority:4" json:"arch_id,omitempty"`
	Arch         *PackageArch `gorm:"foreignKey:ArchID;references:ID" json:"arch,omitempty"`
	FriendlyName string       `gorm:"column:friendly_name" json:"friendly_name"`

	Channels []*ProductChannel `gorm:"foreignKey:ProductID;references:ID" json:"channels,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string { return "product" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ArchLabel returns the label of the loaded Arch association, or "".
func (p *Product) ArchLabel() string {
	if p == nil || p.Arch == nil {
		return ""
	}
	return p.Arch.Label
}

// Ident returns the natural identity of p. Arch is only set when the Arch
// association is loaded.
func (p *Product) Ident() ProductIdent {
	id := ProductIdent{Name: p.Name, Version: p.Version, Release: p.Release}
	if label := p.ArchLabel(); label != "" {
		id.Arch = &label
	}
	return id
}
