package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nahuelp/clipstack/internal/config"
	"github.com/nahuelp/clipstack/internal/domain"
	"github.com/nahuelp/clipstack/internal/jobs"
	"github.com/nahuelp/clipstack/internal/logger"
	"github.com/nahuelp/clipstack/internal/repository"
)

// Request configures one enrichment job.
type Request struct {
	Source                    domain.VideoSource `json:"source,omitempty"`
	CuratedChannelID          *int64             `json:"curated_channel_id,omitempty"`
	Transcribe                bool               `json:"transcribe"`
	Categorize                bool               `json:"categorize"`
	Summarize                 bool               `json:"summarize"`
	WhisperModel              string             `json:"whisper_model,omitempty"`
	Limit                     int                `json:"limit,omitempty"`
	SkipProcessed             bool               `json:"skip_processed"`
	ClassifyWithoutTranscript bool               `json:"classify_without_transcript"`
	OnlyWithoutArea           bool               `json:"only_without_area"`
	OnlyWithoutSummary        bool               `json:"only_without_summary"`
	OnlyWithoutKeyPoints      bool               `json:"only_without_key_points"`
}

func (r Request) stages() StageOptions {
	return StageOptions{
		Transcribe:                r.Transcribe,
		Categorize:                r.Categorize,
		Summarize:                 r.Summarize,
		ClassifyWithoutTranscript: r.ClassifyWithoutTranscript,
	}
}

func (r Request) filter() repository.VideoFilter {
	return repository.VideoFilter{
		Source:               r.Source,
		CuratedChannelID:     r.CuratedChannelID,
		OnlyWithoutArea:      r.OnlyWithoutArea,
		OnlyWithoutSummary:   r.OnlyWithoutSummary,
		OnlyWithoutKeyPoints: r.OnlyWithoutKeyPoints,
		SkipProcessed:        r.SkipProcessed,
		Limit:                r.Limit,
	}
}

// videoFetcher is the slice of the record store the driver reads from.
type videoFetcher interface {
	FetchAll(ctx context.Context, filter repository.VideoFilter) ([]domain.Video, error)
}

// recordProcessor enriches one record.
type recordProcessor interface {
	ProcessVideo(ctx context.Context, video *domain.Video, opts StageOptions) Result
}

// modelChecker verifies the language model backend is reachable.
type modelChecker interface {
	Health(ctx context.Context) error
}

// transcriberChecker verifies the transcription toolchain is usable.
type transcriberChecker interface {
	CheckReady(ctx context.Context) error
	SetModelSize(size string)
}

// Controller owns the lifecycle of enrichment jobs: it validates
// collaborators up front, drives the per-record loop in a background
// goroutine, and exposes pause, resume, cancel, and status operations
// backed by the job registry.
type Controller struct {
	registry  *jobs.Registry
	fetcher   videoFetcher
	processor recordProcessor
	model     modelChecker
	whisper   transcriberChecker
	cfg       *config.EnrichConfig

	mu   sync.Mutex
	reqs map[string]Request
	done map[string]map[int64]struct{} // record IDs finished in earlier runs of a job
}

// NewController wires the job controller.
func NewController(registry *jobs.Registry, fetcher videoFetcher, processor recordProcessor, model modelChecker, whisper transcriberChecker, cfg *config.EnrichConfig) *Controller {
	return &Controller{
		registry:  registry,
		fetcher:   fetcher,
		processor: processor,
		model:     model,
		whisper:   whisper,
		cfg:       cfg,
		reqs:      make(map[string]Request),
		done:      make(map[string]map[int64]struct{}),
	}
}

// StartJob validates the backends the request needs, registers a pending
// job, and launches the driver goroutine. Setup failures surface here
// synchronously; failures after launch are recorded on the job.
// Parameters:
//   - ctx: context for the synchronous validation calls.
//   - req: job configuration.
// Returns:
//   - domain.EnrichmentJob: snapshot of the newly registered job.
//   - error: validation or registration failure.
func (c *Controller) StartJob(ctx context.Context, req Request) (domain.EnrichmentJob, error) {
	if !req.Transcribe && !req.Categorize && !req.Summarize {
		return domain.EnrichmentJob{}, fmt.Errorf("at least one stage must be enabled")
	}
	if req.Categorize || req.Summarize {
		if err := c.model.Health(ctx); err != nil {
			return domain.EnrichmentJob{}, fmt.Errorf("model backend unavailable: %w", err)
		}
	}
	if req.Transcribe {
		if req.WhisperModel != "" {
			c.whisper.SetModelSize(req.WhisperModel)
		}
		if err := c.whisper.CheckReady(ctx); err != nil {
			return domain.EnrichmentJob{}, fmt.Errorf("transcription toolchain unavailable: %w", err)
		}
	}

	job := &domain.EnrichmentJob{
		ID:        uuid.New().String(),
		Status:    domain.JobStatusPending,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := c.registry.Add(job); err != nil {
		return domain.EnrichmentJob{}, err
	}
	c.mu.Lock()
	c.reqs[job.ID] = req
	c.mu.Unlock()

	go c.run(job.ID, req)

	return c.registry.Get(job.ID)
}

// Pause moves a running job to paused. The driver observes the status
// change at the next record boundary and stops.
func (c *Controller) Pause(id string) error {
	return c.transition(id, domain.JobStatusPaused)
}

// Cancel terminates a pending, running, or paused job. Cancelling a
// finished job is an error.
func (c *Controller) Cancel(id string) error {
	job, err := c.registry.Get(id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("job %s already %s", id, job.Status)
	}
	if err := c.transition(id, domain.JobStatusCancelled); err != nil {
		return err
	}
	return c.registry.Checkpoint(id)
}

// Resume restarts a paused job over the records not yet handled, reusing
// the configuration supplied at start. The record set is refetched, and
// records finished in earlier runs are skipped by identity, so the job
// continues correctly whether or not the request filters still match
// them. The job keeps its counters and ID. Jobs only known from
// checkpoints of a previous process cannot resume, their configuration
// is gone.
func (c *Controller) Resume(id string) error {
	job, err := c.registry.Get(id)
	if err != nil {
		return err
	}
	if job.Status != domain.JobStatusPaused {
		return fmt.Errorf("job %s is %s, only paused jobs can resume", id, job.Status)
	}
	c.mu.Lock()
	req, ok := c.reqs[id]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s has no stored configuration, start a new job", id)
	}
	if err := c.transition(id, domain.JobStatusRunning); err != nil {
		return err
	}
	go c.run(id, req)
	return nil
}

// Status returns a snapshot of one job.
func (c *Controller) Status(id string) (domain.EnrichmentJob, error) {
	return c.registry.Get(id)
}

// Delete removes a finished job, its checkpoint, and its stored
// configuration.
func (c *Controller) Delete(id string) error {
	if err := c.registry.Delete(id); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.reqs, id)
	delete(c.done, id)
	c.mu.Unlock()
	return nil
}

// List returns recent jobs, newest first.
func (c *Controller) List() []domain.EnrichmentJob {
	return c.registry.List()
}

// SweepLoop periodically expires old finished jobs until ctx is done.
func (c *Controller) SweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.registry.Sweep()
		}
	}
}

func (c *Controller) transition(id string, to domain.JobStatus) error {
	var terr error
	err := c.registry.Update(id, func(job *domain.EnrichmentJob) {
		terr = job.Transition(to)
	})
	if err != nil {
		return err
	}
	return terr
}

// run drives one job. It fetches the record set, drops the records
// already handled in earlier runs, then processes the rest sequentially,
// honoring pause and cancel at record boundaries, checkpointing every
// batch, and computing an ETA from the throughput of this run.
func (c *Controller) run(id string, req Request) {
	ctx := logger.SetJobID(context.Background(), id)

	if err := c.transition(id, domain.JobStatusRunning); err != nil {
		// Resume already moved the job to running.
		if job, gerr := c.registry.Get(id); gerr != nil || job.Status != domain.JobStatusRunning {
			logger.CtxError(ctx, "job cannot start: %v", err)
			return
		}
	}

	records, err := c.fetcher.FetchAll(ctx, req.filter())
	if err != nil {
		c.fail(ctx, id, fmt.Errorf("failed to fetch records: %w", err))
		return
	}
	records = c.withoutFinished(id, records)

	_ = c.registry.Update(id, func(job *domain.EnrichmentJob) {
		job.Total = job.Processed + len(records)
	})

	logger.With(logger.Fields{logger.FieldCount: len(records)}).
		Info(ctx, "enrichment run starting")

	runStart := time.Now()
	opts := req.stages()

	for i := 0; i < len(records); i++ {
		job, err := c.registry.Get(id)
		if err != nil {
			logger.CtxError(ctx, "job vanished mid-run: %v", err)
			return
		}
		if job.Status != domain.JobStatusRunning {
			_ = c.registry.Checkpoint(id)
			logger.CtxInfo(ctx, "run stopping, job is %s", job.Status)
			return
		}

		video := records[i]
		res := c.processor.ProcessVideo(ctx, &video, opts)
		c.markFinished(id, video.ID)

		processedInRun := i + 1
		remaining := len(records) - i - 1
		eta := etaMinutes(remaining, processedInRun, time.Since(runStart))

		_ = c.registry.Update(id, func(job *domain.EnrichmentJob) {
			job.Processed++
			job.Current = video.Title
			job.ETAMinutes = eta
			if res.Transcribed {
				job.Transcribed++
			}
			if res.Categorized {
				job.Categorized++
			}
			if res.AreaAssigned {
				job.AreaAssigned++
			}
			if res.Summarized {
				job.Summarized++
			}
			if res.KeyPoints > 0 {
				job.KeyPointsAdded++
			}
			if res.Skipped {
				job.Skipped++
			}
			if res.Err != nil {
				job.Failed++
				job.RecordError(fmt.Sprintf("video %d: %v", video.ID, res.Err))
			}
		})

		if c.cfg.BatchSize > 0 && processedInRun%c.cfg.BatchSize == 0 {
			if err := c.registry.Checkpoint(id); err != nil {
				logger.CtxWarn(ctx, "checkpoint failed: %v", err)
			}
		}

		if i < len(records)-1 && c.cfg.RecordDelay > 0 {
			time.Sleep(c.cfg.RecordDelay)
		}
	}

	if err := c.transition(id, domain.JobStatusCompleted); err != nil {
		logger.CtxWarn(ctx, "could not mark job completed: %v", err)
		return
	}
	_ = c.registry.Update(id, func(job *domain.EnrichmentJob) {
		job.Current = ""
		job.ETAMinutes = 0
	})
	_ = c.registry.Checkpoint(id)
	logger.CtxInfo(ctx, "enrichment run completed")
}

// withoutFinished drops the records one of this job's earlier runs
// already processed. A refetch after resume may or may not still contain
// them, depending on the request filters, so they are matched by ID.
func (c *Controller) withoutFinished(id string, records []domain.Video) []domain.Video {
	c.mu.Lock()
	finished := c.done[id]
	c.mu.Unlock()
	if len(finished) == 0 {
		return records
	}
	out := make([]domain.Video, 0, len(records))
	for _, v := range records {
		if _, ok := finished[v.ID]; ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

// markFinished records that a video was handled in some run of this job.
func (c *Controller) markFinished(jobID string, videoID int64) {
	c.mu.Lock()
	if c.done[jobID] == nil {
		c.done[jobID] = make(map[int64]struct{})
	}
	c.done[jobID][videoID] = struct{}{}
	c.mu.Unlock()
}

// etaMinutes estimates the minutes left from this run's throughput so
// far. Zero when nothing remains or nothing has finished yet.
func etaMinutes(remaining, processedInRun int, elapsed time.Duration) float64 {
	if remaining <= 0 || processedInRun <= 0 {
		return 0
	}
	perRecord := elapsed.Seconds() / float64(processedInRun)
	return float64(remaining) * perRecord / 60
}

// fail marks the job failed with the given error and checkpoints it.
func (c *Controller) fail(ctx context.Context, id string, cause error) {
	logger.CtxError(ctx, "job failed: %v", cause)
	_ = c.registry.Update(id, func(job *domain.EnrichmentJob) {
		_ = job.Transition(domain.JobStatusFailed)
		job.Error = cause.Error()
	})
	_ = c.registry.Checkpoint(id)
}
