// Package snapshot describes a full catalog as delivered by an external source and
// loads it from YAML files.
package snapshot

import (
	"errors"
	"fmt"
	"strings"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
)

type Snapshot struct {
	Products   []Product   `yaml:"products" json:"products"`
	Upgrades   []Upgrade   `yaml:"upgrades" json:"upgrades"`
	Extensions []Extension `yaml:"extensions" json:"extensions"`
}

type Product struct {
	ProductID    int64     `yaml:"product_id" json:"product_id"`
	Name         string    `yaml:"name" json:"name"`
	Version      *string   `yaml:"version,omitempty" json:"version,omitempty"`
	Release      *string   `yaml:"release,omitempty" json:"release,omitempty"`
	Arch         *string   `yaml:"arch,omitempty" json:"arch,omitempty"`
	FriendlyName string    `yaml:"friendly_name" json:"friendly_name"`
	Channels     []Channel `yaml:"channels" json:"channels"`
}

func (p Product) Ident() types.ProductIdent {
	return types.ProductIdent{Name: p.Name, Version: p.Version, Release: p.Release, Arch: p.Arch}
}

type Channel struct {
	Label  string `yaml:"label" json:"label"`
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty"`
	Arch   string `yaml:"arch,omitempty" json:"arch,omitempty"`
}

// Ref points at a product either by external product id or by natural identity.
// ProductID takes precedence when both are set.
type Ref struct {
	ProductID int64               `yaml:"product_id,omitempty" json:"product_id,omitempty"`
	Ident     *types.ProductIdent `yaml:"ident,omitempty" json:"ident,omitempty"`
}

func (r Ref) String() string {
	switch {
	case r.ProductID != 0:
		return fmt.Sprintf("#%d", r.ProductID)
	case r.Ident != nil:
		return r.Ident.Normalize().String()
	default:
		return "<empty>"
	}
}

func (r Ref) empty() bool {
	return r.ProductID == 0 && (r.Ident == nil || strings.TrimSpace(r.Ident.Name) == "")
}

type Upgrade struct {
	From Ref `yaml:"from" json:"from"`
	To   Ref `yaml:"to" json:"to"`
}

type Extension struct {
	Root        Ref  `yaml:"root" json:"root"`
	Base        Ref  `yaml:"base" json:"base"`
	Extension   Ref  `yaml:"extension" json:"extension"`
	Recommended bool `yaml:"recommended" json:"recommended"`
}

// Validate checks the shape of the snapshot. Unresolvable references are left to
// the refresh, which rejects them row by row.
func (s *Snapshot) Validate() error {
	const op = "snapshot.Validate"
	if s == nil {
		return types.Validation(op, "snapshot is nil")
	}
	var errs []error
	seen := make(map[int64]int, len(s.Products))
	for i, p := range s.Products {
		if p.ProductID == 0 {
			errs = append(errs, types.Validation(op, "products[%d]: product_id is required", i))
		} else if j, dup := seen[p.ProductID]; dup {
			errs = append(errs, types.Validation(op, "products[%d]: product_id %d already used by products[%d]", i, p.ProductID, j))
		} else {
			seen[p.ProductID] = i
		}
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, types.Validation(op, "products[%d]: name is required", i))
		}
	}
	for i, u := range s.Upgrades {
		if u.From.empty() || u.To.empty() {
			errs = append(errs, types.Validation(op, "upgrades[%d]: from and to are required", i))
		}
	}
	for i, e := range s.Extensions {
		if e.Root.empty() || e.Base.empty() || e.Extension.empty() {
			errs = append(errs, types.Validation(op, "extensions[%d]: root, base and extension are required", i))
		}
	}
	return errors.Join(errs...)
}

// ArchLabels lists every product arch named by the snapshot.
func (s *Snapshot) ArchLabels() []string {
	var out []string
	for _, p := range s.Products {
		if p.Arch != nil {
			out = append(out, *p.Arch)
		}
	}
	return out
}
