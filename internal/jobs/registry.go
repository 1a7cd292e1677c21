package jobs

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/nahuelp/clipstack/internal/config"
	"github.com/nahuelp/clipstack/internal/domain"
	"github.com/nahuelp/clipstack/internal/logger"
)

// ErrNotFound is returned when a job exists neither in memory nor as an
// on-disk checkpoint.
var ErrNotFound = errors.New("job not found")

// Registry is the shared mutable store for enrichment jobs. Each job's
// own driver task updates it while status-polling callers read it, so all
// access goes through the mutex. Checkpoint files back the registry: a
// job evicted from memory can still be inspected from its last snapshot.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.EnrichmentJob
	dir       string
	maxJobs   int
	retention time.Duration
}

// NewRegistry creates a Registry and ensures the checkpoint directory
// exists.
// Parameters:
//   - cfg: enrichment configuration with checkpoint dir and bounds.
// Returns:
//   - *Registry: registry instance.
//   - error: non-nil if the checkpoint directory cannot be created.
func NewRegistry(cfg *config.EnrichConfig) (*Registry, error) {
	if err := os.MkdirAll(cfg.CheckpointDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &Registry{
		jobs:      make(map[string]*domain.EnrichmentJob),
		dir:       cfg.CheckpointDir,
		maxJobs:   cfg.MaxJobs,
		retention: cfg.JobRetention,
	}, nil
}

// Add registers a new job.
// Parameters:
//   - job: job to track; its ID must be unique.
// Returns:
//   - error: non-nil if a job with the same ID already exists.
func (r *Registry) Add(job *domain.EnrichmentJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	r.jobs[job.ID] = job
	r.evictLocked()
	return nil
}

// Get returns a snapshot of a job, falling back to the on-disk
// checkpoint when the in-memory entry was evicted.
// Parameters:
//   - id: job ID.
// Returns:
//   - domain.EnrichmentJob: copy of the job state.
//   - error: ErrNotFound if no trace of the job exists.
func (r *Registry) Get(id string) (domain.EnrichmentJob, error) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	if ok {
		snapshot := snapshotOf(job)
		r.mu.RUnlock()
		return snapshot, nil
	}
	r.mu.RUnlock()

	fromDisk, err := loadCheckpoint(r.dir, id)
	if err != nil {
		return domain.EnrichmentJob{}, ErrNotFound
	}
	return *fromDisk, nil
}

// Update applies a mutation to a job under the registry lock.
// Parameters:
//   - id: job ID.
//   - fn: mutation applied to the live job.
// Returns:
//   - error: ErrNotFound if the job is not in memory.
func (r *Registry) Update(id string, fn func(*domain.EnrichmentJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(job)
	job.UpdatedAt = time.Now()
	return nil
}

// Checkpoint writes the job's current snapshot to durable storage.
// Parameters:
//   - id: job ID.
// Returns:
//   - error: non-nil if the job is unknown or the write fails.
func (r *Registry) Checkpoint(id string) error {
	r.mu.RLock()
	job, ok := r.jobs[id]
	var snapshot domain.EnrichmentJob
	if ok {
		snapshot = snapshotOf(job)
	}
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return writeCheckpoint(r.dir, &snapshot)
}

// Delete removes a job and its checkpoint. Running jobs cannot be
// deleted.
// Parameters:
//   - id: job ID.
// Returns:
//   - error: non-nil if the job is unknown or still running.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[id]; ok {
		if job.Status == domain.JobStatusRunning {
			return fmt.Errorf("job %s is still running", id)
		}
		delete(r.jobs, id)
		removeCheckpoint(r.dir, id)
		return nil
	}

	if _, err := loadCheckpoint(r.dir, id); err != nil {
		return ErrNotFound
	}
	removeCheckpoint(r.dir, id)
	return nil
}

// List returns snapshots of the most recent jobs, bounded to the
// configured maximum, merging on-disk checkpoints for jobs no longer in
// memory.
// Parameters: none.
// Returns:
//   - []domain.EnrichmentJob: jobs sorted newest first.
func (r *Registry) List() []domain.EnrichmentJob {
	r.mu.RLock()
	out := make([]domain.EnrichmentJob, 0, len(r.jobs))
	inMemory := make(map[string]bool, len(r.jobs))
	for id, job := range r.jobs {
		out = append(out, snapshotOf(job))
		inMemory[id] = true
	}
	r.mu.RUnlock()

	for _, job := range listCheckpoints(r.dir) {
		if !inMemory[job.ID] {
			out = append(out, *job)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if r.maxJobs > 0 && len(out) > r.maxJobs {
		out = out[:r.maxJobs]
	}
	return out
}

// Sweep evicts terminal jobs older than the retention window from memory
// and removes their checkpoints.
// Parameters: none.
// Returns:
//   - int: how many jobs were swept.
func (r *Registry) Sweep() int {
	cutoff := time.Now().Add(-r.retention)
	swept := 0

	r.mu.Lock()
	for id, job := range r.jobs {
		if job.Status.Terminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			removeCheckpoint(r.dir, id)
			swept++
		}
	}
	r.mu.Unlock()

	for _, job := range listCheckpoints(r.dir) {
		if job.Status.Terminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			removeCheckpoint(r.dir, job.ID)
			swept++
		}
	}

	if swept > 0 {
		logger.Info("swept %d expired jobs", swept)
	}
	return swept
}

// evictLocked drops the oldest terminal jobs once the in-memory map
// exceeds the bound. Their checkpoints remain on disk for status
// fallback. Caller must hold the write lock.
func (r *Registry) evictLocked() {
	if r.maxJobs <= 0 || len(r.jobs) <= r.maxJobs {
		return
	}

	type candidate struct {
		id      string
		started time.Time
	}
	var terminal []candidate
	for id, job := range r.jobs {
		if job.Status.Terminal() {
			terminal = append(terminal, candidate{id, job.StartedAt})
		}
	}
	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].started.Before(terminal[j].started)
	})

	for _, c := range terminal {
		if len(r.jobs) <= r.maxJobs {
			break
		}
		// snapshot survives on disk
		if job := r.jobs[c.id]; job != nil {
			snapshot := snapshotOf(job)
			_ = writeCheckpoint(r.dir, &snapshot)
		}
		delete(r.jobs, c.id)
	}
}

// snapshotOf copies a job including its error list.
func snapshotOf(job *domain.EnrichmentJob) domain.EnrichmentJob {
	snapshot := *job
	if job.Errors != nil {
		snapshot.Errors = append([]string(nil), job.Errors...)
	}
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		snapshot.FinishedAt = &t
	}
	return snapshot
}
