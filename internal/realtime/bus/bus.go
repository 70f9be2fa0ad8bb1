package bus

import (
	"context"
	"encoding/json"
	"time"
)

const EventCatalogRefreshed = "catalog.refreshed"

// CatalogEvent announces a committed change to the catalog.
type CatalogEvent struct {
	Type   string          `json:"type"`
	RunID  string          `json:"run_id,omitempty"`
	Source string          `json:"source,omitempty"`
	At     time.Time       `json:"at"`
	Stats  json.RawMessage `json:"stats,omitempty"`
}

type Bus interface {
	Publish(ctx context.Context, ev CatalogEvent) error
	StartForwarder(ctx context.Context, onMsg func(ev CatalogEvent)) error
	Close() error
}
