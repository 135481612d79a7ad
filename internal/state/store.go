// Package state keeps the run ledger of lookup builds in a local SQLite database.
package state

import (
	"context"
	"time"
)

// RunStatus represents the status of a build run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded execution of the lookup build.
type Run struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	Mode        string     `json:"mode"`
	Engine      string     `json:"engine"`
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Rows        int64      `json:"rows"`
	URLs        int64      `json:"urls"`
	Error       string     `json:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is still running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// RunParams describes a run about to start.
type RunParams struct {
	Mode        string
	Engine      string
	Source      string
	Destination string
}

// RunResult is the outcome recorded when a run finishes. A non-nil Err marks
// the run failed.
type RunResult struct {
	Rows int64
	URLs int64
	Err  error
}

// Store is the run ledger.
type Store interface {
	CreateRun(ctx context.Context, p RunParams) (*Run, error)
	CompleteRun(ctx context.Context, id string, res RunResult) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}
