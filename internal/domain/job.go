package domain

import (
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of an enrichment job.
// Values include JobStatusPending, JobStatusRunning, JobStatusPaused,
// JobStatusCancelled, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusPaused    JobStatus = "paused"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCancelled, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// jobTransitions enumerates the allowed status transitions.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending: {JobStatusRunning, JobStatusCancelled, JobStatusFailed},
	JobStatusRunning: {JobStatusPaused, JobStatusCancelled, JobStatusCompleted, JobStatusFailed},
	JobStatusPaused:  {JobStatusRunning, JobStatusCancelled, JobStatusFailed},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to JobStatus) bool {
	for _, allowed := range jobTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// maxJobErrors bounds the per-job error list so a job with thousands of
// failing records does not grow without limit.
const maxJobErrors = 50

// EnrichmentJob tracks the progress of a background enrichment run.
// The full struct is the checkpoint snapshot written to disk.
type EnrichmentJob struct {
	ID             string    `json:"id"`
	Status         JobStatus `json:"status"`
	Total          int       `json:"total"`
	Processed      int       `json:"processed"`
	Transcribed    int       `json:"transcribed"`
	Categorized    int       `json:"categorized"`
	AreaAssigned   int       `json:"area_assigned"`
	Summarized     int       `json:"summarized"`
	KeyPointsAdded int       `json:"key_points_added"`
	Failed         int       `json:"failed"`
	Skipped        int       `json:"skipped"`           // records no stage could touch
	Current        string    `json:"current,omitempty"` // title of the record in flight
	ETAMinutes     float64   `json:"eta_minutes"`
	Error          string    `json:"error,omitempty"`  // fatal job error
	Errors         []string  `json:"errors,omitempty"` // bounded per-record errors

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Transition moves the job to a new status, enforcing the state machine.
// Parameters:
//   - to: target status.
// Returns:
//   - error: non-nil if the transition is not allowed from the current status.
func (j *EnrichmentJob) Transition(to JobStatus) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("invalid job transition: %s -> %s", j.Status, to)
	}
	j.Status = to
	j.UpdatedAt = time.Now()
	if to.Terminal() {
		now := time.Now()
		j.FinishedAt = &now
	}
	return nil
}

// RecordError appends a per-record error message, keeping only the most
// recent entries once the bound is reached.
func (j *EnrichmentJob) RecordError(msg string) {
	j.Errors = append(j.Errors, msg)
	if len(j.Errors) > maxJobErrors {
		j.Errors = j.Errors[len(j.Errors)-maxJobErrors:]
	}
}
