// Package catalog holds the persisted product catalog model: products, the channels
// they deliver through, extension edges (root, base, extension) and upgrade edges
// (from, to), plus the natural keys used to diff them.
//
// Whether a product is a base or an extension is never stored; it follows from which
// edges reference it.
package catalog
