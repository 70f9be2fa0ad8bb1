package reconcile

import (
	"github.com/google/uuid"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
)

// ExtensionEdge is a desired extension relationship. Equality is over Key only.
type ExtensionEdge struct {
	Key         types.ExtensionKey
	Recommended bool
}

// ChannelSpec is a desired channel binding for one product. Arch is the
// architecture declared for the channel, nil when unknown.
type ChannelSpec struct {
	Label  string
	Parent *string
	Arch   *string
}

type UpgradeDiff struct {
	Delete []*types.UpgradePath
	Insert []types.UpgradeKey
}

func (d UpgradeDiff) Empty() bool { return len(d.Delete) == 0 && len(d.Insert) == 0 }

type RecommendedUpdate struct {
	ID          uuid.UUID
	Key         types.ExtensionKey
	Recommended bool
}

type ExtensionDiff struct {
	Delete []*types.ProductExtension
	Update []RecommendedUpdate
	Insert []ExtensionEdge
}

func (d ExtensionDiff) Empty() bool {
	return len(d.Delete) == 0 && len(d.Update) == 0 && len(d.Insert) == 0
}

type ChannelUpdate struct {
	ID     uuid.UUID
	Label  string
	Parent *string
	Arch   *string
}

type ChannelDiff struct {
	Delete []*types.ProductChannel
	Update []ChannelUpdate
	Insert []ChannelSpec
}

func (d ChannelDiff) Empty() bool {
	return len(d.Delete) == 0 && len(d.Update) == 0 && len(d.Insert) == 0
}

// DiffUpgradePaths computes the writes that turn existing into desired. Edges
// present on both sides are untouched; repeated desired keys count once.
func DiffUpgradePaths(existing []*types.UpgradePath, desired []types.UpgradeKey) UpgradeDiff {
	want := make(map[types.UpgradeKey]struct{}, len(desired))
	for _, k := range desired {
		want[k] = struct{}{}
	}
	have := make(map[types.UpgradeKey]struct{}, len(existing))

	var d UpgradeDiff
	for _, e := range existing {
		k := e.Key()
		have[k] = struct{}{}
		if _, ok := want[k]; !ok {
			d.Delete = append(d.Delete, e)
		}
	}
	for _, k := range desired {
		if _, ok := have[k]; ok {
			continue
		}
		have[k] = struct{}{}
		d.Insert = append(d.Insert, k)
	}
	return d
}

// DiffExtensions computes the writes that turn existing into desired. When the
// same key is desired more than once, the first occurrence decides Recommended.
func DiffExtensions(existing []*types.ProductExtension, desired []ExtensionEdge) ExtensionDiff {
	want := make(map[types.ExtensionKey]ExtensionEdge, len(desired))
	for _, e := range desired {
		if _, dup := want[e.Key]; !dup {
			want[e.Key] = e
		}
	}
	have := make(map[types.ExtensionKey]struct{}, len(existing))

	var d ExtensionDiff
	for _, e := range existing {
		k := e.Key()
		have[k] = struct{}{}
		w, ok := want[k]
		switch {
		case !ok:
			d.Delete = append(d.Delete, e)
		case w.Recommended != e.Recommended:
			d.Update = append(d.Update, RecommendedUpdate{ID: e.ID, Key: k, Recommended: w.Recommended})
		}
	}
	for _, e := range desired {
		if _, ok := have[e.Key]; ok {
			continue
		}
		have[e.Key] = struct{}{}
		d.Insert = append(d.Insert, want[e.Key])
	}
	return d
}

// DiffChannels computes the writes that turn one product's existing channels into
// desired, keyed by label. The first desired occurrence of a label wins.
func DiffChannels(existing []*types.ProductChannel, desired []ChannelSpec) ChannelDiff {
	want := make(map[string]ChannelSpec, len(desired))
	for _, c := range desired {
		if _, dup := want[c.Label]; !dup {
			want[c.Label] = c
		}
	}
	have := make(map[string]struct{}, len(existing))

	var d ChannelDiff
	for _, c := range existing {
		have[c.ChannelLabel] = struct{}{}
		w, ok := want[c.ChannelLabel]
		switch {
		case !ok:
			d.Delete = append(d.Delete, c)
		case !sameLabel(w.Parent, c.ParentChannelLabel) || !sameLabel(w.Arch, c.Arch):
			d.Update = append(d.Update, ChannelUpdate{ID: c.ID, Label: c.ChannelLabel, Parent: w.Parent, Arch: w.Arch})
		}
	}
	for _, c := range desired {
		if _, ok := have[c.Label]; ok {
			continue
		}
		have[c.Label] = struct{}{}
		d.Insert = append(d.Insert, want[c.Label])
	}
	return d
}

func sameLabel(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
