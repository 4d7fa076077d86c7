package domain

import "time"

// SnapshotKind tells a sync snapshot from one recorded by a rollback.
type SnapshotKind string

const (
	SnapshotSync     SnapshotKind = "sync"
	SnapshotRollback SnapshotKind = "rollback"
)

// SyncSnapshot is one append-only history entry for a business.
type SyncSnapshot struct {
	// Key is assigned by the history backend on append and increases monotonically.
	Key          string          `json:"key"`
	BusinessCode string          `json:"business_code"`
	RunID        string          `json:"run_id,omitempty"`
	Kind         SnapshotKind    `json:"kind"`
	RecordedAt   time.Time       `json:"recorded_at"`
	Products     []TargetProduct `json:"products"`
}

// LatestUpdate is the most recent product updated_at in the snapshot, or RecordedAt
// when no product carries one.
func (s SyncSnapshot) LatestUpdate() time.Time {
	var latest time.Time
	for _, p := range s.Products {
		if p.UpdatedAt != nil && p.UpdatedAt.After(latest) {
			latest = *p.UpdatedAt
		}
	}
	if latest.IsZero() {
		return s.RecordedAt
	}
	return latest
}

// Tenant ties a shop to the business it syncs from.
type Tenant struct {
	Shop         string `json:"shop"`
	StoreDomain  string `json:"storeDomain"`
	BusinessCode string `json:"businessCode"`
}
