package closure

import (
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
)

// ArchResolver maps a channel label to an architecture label. An unknown label
// maps to "".
type ArchResolver func(channelLabel string) string

// SameArch reports whether a and b resolve to the same architecture.
func SameArch(resolve ArchResolver, a, b string) bool {
	return resolve(a) == resolve(b)
}

// MapResolver resolves labels from a fixed table, such as channel descriptions
// taken from a catalog snapshot.
func MapResolver(archByLabel map[string]string) ArchResolver {
	return func(label string) string { return archByLabel[label] }
}

// FilterSameArch keeps the channels whose label resolves to the architecture of
// anchor, preserving order.
func FilterSameArch(channels []*types.ProductChannel, anchor string, resolve ArchResolver) []*types.ProductChannel {
	out := make([]*types.ProductChannel, 0, len(channels))
	for _, c := range channels {
		if SameArch(resolve, c.ChannelLabel, anchor) {
			out = append(out, c)
		}
	}
	return out
}
