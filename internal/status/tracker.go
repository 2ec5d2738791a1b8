// Package status tracks the advisory progress of a report run. It is
// observational only: callers poll it for display, nothing reads it to
// make decisions.
package status

import (
	"sync"
	"time"
)

// Stages a report run moves through, in rough order.
const (
	StageIdle             = "idle"
	StageNavigating       = "navigating"
	StageLoggingIn        = "logging_in"
	StageRequestingReport = "requesting_report"
	StageWaitingExport    = "waiting_export"
	StageDownloading      = "downloading"
	StageParsing          = "parsing"
	StageAggregating      = "aggregating"
	StageCompleted        = "completed"
	StageError            = "error"
)

// Snapshot is a point-in-time copy of the tracker state.
type Snapshot struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker holds the most recent stage reached by the current (or last)
// report run. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	stage     string
	message   string
	updatedAt time.Time
}

// NewTracker returns a tracker in the idle stage.
func NewTracker() *Tracker {
	return &Tracker{stage: StageIdle, updatedAt: time.Now()}
}

// Set records a new stage and message.
func (t *Tracker) Set(stage, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stage = stage
	t.message = message
	t.updatedAt = time.Now()
}

// Reset returns the tracker to idle. Called at the start of each run.
func (t *Tracker) Reset() {
	t.Set(StageIdle, "")
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{Stage: t.stage, Message: t.message, UpdatedAt: t.updatedAt}
}
