package cache

import (
	"context"
	"time"
)

// EntityCheckpoint records the last successful sync of one entity type
type EntityCheckpoint struct {
	Entity   string    `json:"entity"`
	SyncedAt time.Time `json:"synced_at"`
	Rows     int       `json:"rows"`
}

// StepCheckpoint is the per-entity outcome embedded in a cycle summary
type StepCheckpoint struct {
	Entity   string        `json:"entity"`
	Status   string        `json:"status"`
	Rows     int           `json:"rows"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// CycleSummary is the persisted outcome of one full sync cycle
type CycleSummary struct {
	CycleID    string           `json:"cycle_id"`
	Status     string           `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Steps      []StepCheckpoint `json:"steps"`
}

// CheckpointStore persists sync progress so it survives restarts and can be
// shared across instances. Checkpoints are advisory: losing them never
// corrupts the dataset, the next cycle simply re-pulls.
type CheckpointStore interface {
	// SaveEntityCheckpoint records a successful sync of one entity type
	SaveEntityCheckpoint(ctx context.Context, cp EntityCheckpoint) error
	// EntityCheckpoints returns the last checkpoint of every entity type
	EntityCheckpoints(ctx context.Context) ([]EntityCheckpoint, error)
	// SaveCycleSummary records the outcome of a completed cycle
	SaveCycleSummary(ctx context.Context, summary CycleSummary) error
	// LastCycleSummary returns the most recent cycle summary, or nil if none
	LastCycleSummary(ctx context.Context) (*CycleSummary, error)
}
