package catalog

import (
	"strings"

	"github.com/google/uuid"
)

// ProductIdent is the natural identity of a product as delivered by the external
// catalog. Nil fields were not specified upstream.
type ProductIdent struct {
	Name    string  `json:"name" yaml:"name"`
	Version *string `json:"version,omitempty" yaml:"version,omitempty"`
	Release *string `json:"release,omitempty" yaml:"release,omitempty"`
	Arch    *string `json:"arch,omitempty" yaml:"arch,omitempty"`
}

// Normalize lowercases and trims every field; blank optional fields become nil.
func (i ProductIdent) Normalize() ProductIdent {
	return ProductIdent{
		Name:    strings.ToLower(strings.TrimSpace(i.Name)),
		Version: lowerOrNil(i.Version),
		Release: lowerOrNil(i.Release),
		Arch:    lowerOrNil(i.Arch),
	}
}

func (i ProductIdent) String() string {
	return strings.Join([]string{i.Name, orDash(i.Version), orDash(i.Release), orDash(i.Arch)}, "/")
}

// Key returns a comparable form of the normalized identity.
func (i ProductIdent) Key() ProductKey {
	n := i.Normalize()
	return ProductKey{Name: n.Name, Version: orEmpty(n.Version), Release: orEmpty(n.Release), Arch: orEmpty(n.Arch)}
}

type ProductKey struct {
	Name, Version, Release, Arch string
}

type ChannelKey struct {
	Product uuid.UUID
	Label   string
}

type ExtensionKey struct {
	Root, Base, Extension uuid.UUID
}

type UpgradeKey struct {
	From, To uuid.UUID
}

func lowerOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*p))
	if v == "" {
		return nil
	}
	return &v
}

func orDash(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func orEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
