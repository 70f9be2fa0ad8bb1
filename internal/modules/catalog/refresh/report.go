package refresh

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/catalog-backend/internal/modules/catalog/reconcile"
)

type ProductStats struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Report summarizes one refresh. It is stored as the stats of the refresh run.
type Report struct {
	RunID      uuid.UUID             `json:"run_id"`
	Source     string                `json:"source"`
	StartedAt  time.Time             `json:"started_at"`
	Duration   time.Duration         `json:"duration_ns"`
	Products   ProductStats          `json:"products"`
	Channels   reconcile.MergeResult `json:"channels"`
	Upgrades   reconcile.MergeResult `json:"upgrades"`
	Extensions reconcile.MergeResult `json:"extensions"`
	Pruned     int                   `json:"pruned"`
	Rejected   []string              `json:"rejected,omitempty"`
}

// Writes is the number of rows the refresh inserted, updated or deleted.
func (r *Report) Writes() int {
	return r.Products.Created + r.Products.Updated +
		r.Channels.Writes() + r.Upgrades.Writes() + r.Extensions.Writes() + r.Pruned
}
