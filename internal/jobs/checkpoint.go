package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nahuelp/clipstack/internal/domain"
)

// checkpointPath returns the snapshot file path for a job id.
func checkpointPath(dir, id string) string {
	return filepath.Join(dir, id+".json")
}

// writeCheckpoint persists the full job snapshot atomically: the snapshot
// is written to a temp file in the same directory and renamed over the
// final path, so a crash mid-write never leaves a torn checkpoint.
func writeCheckpoint(dir string, job *domain.EnrichmentJob) error {
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint for job %s: %w", job.ID, err)
	}

	tmp, err := os.CreateTemp(dir, job.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close checkpoint temp file: %w", err)
	}

	if err := os.Rename(tmpName, checkpointPath(dir, job.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize checkpoint: %w", err)
	}
	return nil
}

// loadCheckpoint reads a job snapshot back from disk.
func loadCheckpoint(dir, id string) (*domain.EnrichmentJob, error) {
	data, err := os.ReadFile(checkpointPath(dir, id))
	if err != nil {
		return nil, err
	}
	var job domain.EnrichmentJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint for job %s: %w", id, err)
	}
	return &job, nil
}

// listCheckpoints loads every job snapshot present on disk.
func listCheckpoints(dir string) []*domain.EnrichmentJob {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []*domain.EnrichmentJob
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		job, err := loadCheckpoint(dir, id)
		if err != nil {
			continue
		}
		out = append(out, job)
	}
	return out
}

// removeCheckpoint deletes a job's snapshot file if present.
func removeCheckpoint(dir, id string) {
	os.Remove(checkpointPath(dir, id))
}
