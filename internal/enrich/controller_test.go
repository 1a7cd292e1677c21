package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nahuelp/clipstack/internal/config"
	"github.com/nahuelp/clipstack/internal/domain"
	"github.com/nahuelp/clipstack/internal/jobs"
	"github.com/nahuelp/clipstack/internal/repository"
)

type fakeFetcher struct {
	records []domain.Video
	err     error
}

func (f *fakeFetcher) FetchAll(_ context.Context, _ repository.VideoFilter) ([]domain.Video, error) {
	return f.records, f.err
}

// stampingFetcher behaves like a skip-processed refetch: records already
// enriched drop out of later fetches.
type stampingFetcher struct {
	records  []domain.Video
	enriched func() []int64
}

func (f *stampingFetcher) FetchAll(_ context.Context, _ repository.VideoFilter) ([]domain.Video, error) {
	stamped := make(map[int64]bool)
	for _, id := range f.enriched() {
		stamped[id] = true
	}
	out := make([]domain.Video, 0, len(f.records))
	for _, v := range f.records {
		if !stamped[v.ID] {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeProcessor struct {
	mu      sync.Mutex
	seen    []int64
	process func(video *domain.Video) Result
}

func (p *fakeProcessor) ProcessVideo(_ context.Context, video *domain.Video, _ StageOptions) Result {
	p.mu.Lock()
	p.seen = append(p.seen, video.ID)
	p.mu.Unlock()
	if p.process != nil {
		return p.process(video)
	}
	return Result{Summarized: true}
}

func (p *fakeProcessor) ids() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, len(p.seen))
	copy(out, p.seen)
	return out
}

type fakeModel struct{ err error }

func (m *fakeModel) Health(_ context.Context) error { return m.err }

type fakeWhisper struct {
	err   error
	model string
}

func (w *fakeWhisper) CheckReady(_ context.Context) error { return w.err }
func (w *fakeWhisper) SetModelSize(size string)           { w.model = size }

func testController(t *testing.T, fetcher videoFetcher, processor *fakeProcessor) *Controller {
	t.Helper()
	return testControllerWithBatch(t, fetcher, processor, 2)
}

func testControllerWithBatch(t *testing.T, fetcher videoFetcher, processor *fakeProcessor, batchSize int) *Controller {
	t.Helper()
	cfg := &config.EnrichConfig{
		BatchSize:     batchSize,
		CheckpointDir: t.TempDir(),
		MaxJobs:       10,
		JobRetention:  time.Hour,
	}
	registry, err := jobs.NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewController(registry, fetcher, processor, &fakeModel{}, &fakeWhisper{}, cfg)
}

func videos(ids ...int64) []domain.Video {
	out := make([]domain.Video, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Video{ID: id, Title: "video"})
	}
	return out
}

func waitForStatus(t *testing.T, c *Controller, id string, want domain.JobStatus) domain.EnrichmentJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := c.Status(id)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := c.Status(id)
	t.Fatalf("job never reached %s, last seen %s", want, job.Status)
	return domain.EnrichmentJob{}
}

func TestStartJobRequiresAStage(t *testing.T) {
	c := testController(t, &fakeFetcher{}, &fakeProcessor{})
	if _, err := c.StartJob(context.Background(), Request{}); err == nil {
		t.Fatal("expected error when no stage is enabled")
	}
}

func TestStartJobValidatesModelBackend(t *testing.T) {
	c := testController(t, &fakeFetcher{}, &fakeProcessor{})
	c.model = &fakeModel{err: errors.New("connection refused")}
	if _, err := c.StartJob(context.Background(), Request{Summarize: true}); err == nil {
		t.Fatal("expected error when the model backend is down")
	}
}

func TestStartJobValidatesTranscriptionToolchain(t *testing.T) {
	c := testController(t, &fakeFetcher{}, &fakeProcessor{})
	whisper := &fakeWhisper{err: errors.New("binary not found")}
	c.whisper = whisper
	_, err := c.StartJob(context.Background(), Request{Transcribe: true, WhisperModel: "small"})
	if err == nil {
		t.Fatal("expected error when the toolchain is missing")
	}
	if whisper.model != "small" {
		t.Errorf("model size = %q, want small", whisper.model)
	}
}

func TestJobRunsToCompletion(t *testing.T) {
	processor := &fakeProcessor{process: func(v *domain.Video) Result {
		if v.ID == 2 {
			return Result{Err: errors.New("boom")}
		}
		return Result{Transcribed: true, Categorized: true, Summarized: true}
	}}
	c := testController(t, &fakeFetcher{records: videos(1, 2, 3)}, processor)

	job, err := c.StartJob(context.Background(), Request{Summarize: true})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	done := waitForStatus(t, c, job.ID, domain.JobStatusCompleted)
	if done.Total != 3 || done.Processed != 3 {
		t.Errorf("total/processed = %d/%d, want 3/3", done.Total, done.Processed)
	}
	if done.Transcribed != 2 || done.Categorized != 2 || done.Summarized != 2 {
		t.Errorf("counters = %d/%d/%d, want 2/2/2", done.Transcribed, done.Categorized, done.Summarized)
	}
	if done.Failed != 1 || len(done.Errors) != 1 {
		t.Errorf("failed = %d errors = %v, want one failure recorded", done.Failed, done.Errors)
	}
	if done.ETAMinutes != 0 || done.Current != "" {
		t.Errorf("completed job should clear progress hints, got eta=%v current=%q", done.ETAMinutes, done.Current)
	}
	if done.FinishedAt == nil {
		t.Error("completed job should carry a finish time")
	}
}

func TestPerRecordFailureDoesNotStopTheRun(t *testing.T) {
	processor := &fakeProcessor{process: func(*domain.Video) Result {
		return Result{Err: errors.New("every record fails")}
	}}
	c := testController(t, &fakeFetcher{records: videos(1, 2, 3, 4)}, processor)

	job, err := c.StartJob(context.Background(), Request{Categorize: true})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	done := waitForStatus(t, c, job.ID, domain.JobStatusCompleted)
	if done.Processed != 4 || done.Failed != 4 {
		t.Errorf("processed/failed = %d/%d, want 4/4", done.Processed, done.Failed)
	}
}

func TestFetchFailureFailsTheJob(t *testing.T) {
	c := testController(t, &fakeFetcher{err: errors.New("db gone")}, &fakeProcessor{})

	job, err := c.StartJob(context.Background(), Request{Summarize: true})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	done := waitForStatus(t, c, job.ID, domain.JobStatusFailed)
	if done.Error == "" {
		t.Error("failed job should record the fatal error")
	}
}

func TestCancelFinishedJobIsAnError(t *testing.T) {
	c := testController(t, &fakeFetcher{records: videos(1)}, &fakeProcessor{})

	job, err := c.StartJob(context.Background(), Request{Summarize: true})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	waitForStatus(t, c, job.ID, domain.JobStatusCompleted)

	if err := c.Cancel(job.ID); err == nil {
		t.Fatal("cancelling a completed job must fail")
	}
}

func TestPauseStopsAtRecordBoundaryAndResumeSkipsProcessed(t *testing.T) {
	var c *Controller
	var jobID string
	ready := make(chan struct{})
	processor := &fakeProcessor{}
	processor.process = func(v *domain.Video) Result {
		if v.ID == 1 {
			<-ready
			if err := c.Pause(jobID); err != nil {
				t.Errorf("Pause: %v", err)
			}
		}
		return Result{Summarized: true}
	}
	c = testController(t, &fakeFetcher{records: videos(1, 2, 3)}, processor)

	job, err := c.StartJob(context.Background(), Request{Summarize: true})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	jobID = job.ID
	close(ready)

	paused := waitForStatus(t, c, jobID, domain.JobStatusPaused)
	if paused.Processed != 1 {
		t.Fatalf("processed = %d after pause, want 1", paused.Processed)
	}

	processor.process = nil
	if err := c.Resume(jobID); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	done := waitForStatus(t, c, jobID, domain.JobStatusCompleted)
	if done.Processed != 3 {
		t.Errorf("processed = %d after resume, want 3", done.Processed)
	}

	ids := processor.ids()
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("processed IDs = %v, want each record exactly once in order", ids)
	}
}

func TestResumeCoversRecordsDroppedFromTheRefetch(t *testing.T) {
	var c *Controller
	var jobID string
	ready := make(chan struct{})
	processor := &fakeProcessor{}
	processor.process = func(v *domain.Video) Result {
		if v.ID == 2 {
			<-ready
			if err := c.Pause(jobID); err != nil {
				t.Errorf("Pause: %v", err)
			}
		}
		return Result{Summarized: true}
	}
	fetcher := &stampingFetcher{records: videos(1, 2, 3, 4), enriched: processor.ids}
	c = testController(t, fetcher, processor)

	job, err := c.StartJob(context.Background(), Request{Summarize: true, SkipProcessed: true})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	jobID = job.ID
	close(ready)

	paused := waitForStatus(t, c, jobID, domain.JobStatusPaused)
	if paused.Processed != 2 {
		t.Fatalf("processed = %d after pause, want 2", paused.Processed)
	}

	processor.process = nil
	if err := c.Resume(jobID); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	done := waitForStatus(t, c, jobID, domain.JobStatusCompleted)
	if done.Processed != 4 || done.Total != 4 {
		t.Errorf("processed/total = %d/%d, want 4/4", done.Processed, done.Total)
	}
	if done.Processed > done.Total {
		t.Errorf("processed %d exceeds total %d", done.Processed, done.Total)
	}

	ids := processor.ids()
	want := []int64{1, 2, 3, 4}
	if len(ids) != len(want) {
		t.Fatalf("processed IDs = %v, want each record exactly once", ids)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("processed IDs = %v, want %v", ids, want)
			break
		}
	}
}

func TestZeroBatchSizeStillCompletesTheRun(t *testing.T) {
	c := testControllerWithBatch(t, &fakeFetcher{records: videos(1, 2, 3)}, &fakeProcessor{}, 0)

	job, err := c.StartJob(context.Background(), Request{Summarize: true})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	done := waitForStatus(t, c, job.ID, domain.JobStatusCompleted)
	if done.Processed != 3 {
		t.Errorf("processed = %d, want 3", done.Processed)
	}
}

func TestEtaMinutes(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		processed int
		elapsed   time.Duration
		want      float64
	}{
		{"halfway at one minute per record", 5, 5, 5 * time.Minute, 5},
		{"early estimate", 3, 1, 30 * time.Second, 1.5},
		{"nothing remaining", 0, 4, time.Minute, 0},
		{"nothing finished yet", 4, 0, time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := etaMinutes(tt.remaining, tt.processed, tt.elapsed)
			if got != tt.want {
				t.Errorf("etaMinutes(%d, %d, %v) = %v, want %v", tt.remaining, tt.processed, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestEtaShrinksAsTheRunAdvances(t *testing.T) {
	step := make(chan struct{})
	processor := &fakeProcessor{process: func(*domain.Video) Result {
		<-step
		return Result{Summarized: true}
	}}
	c := testController(t, &fakeFetcher{records: videos(1, 2, 3, 4)}, processor)

	job, err := c.StartJob(context.Background(), Request{Summarize: true})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	waitForProcessed := func(n int) domain.EnrichmentJob {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			snap, err := c.Status(job.ID)
			if err == nil && snap.Processed == n {
				return snap
			}
			time.Sleep(2 * time.Millisecond)
		}
		t.Fatalf("job never reached %d processed records", n)
		return domain.EnrichmentJob{}
	}

	var etas []float64
	for n := 1; n <= 4; n++ {
		time.Sleep(20 * time.Millisecond)
		step <- struct{}{}
		snap := waitForProcessed(n)
		if n < 4 {
			etas = append(etas, snap.ETAMinutes)
		}
	}

	done := waitForStatus(t, c, job.ID, domain.JobStatusCompleted)
	for i, eta := range etas {
		if eta <= 0 {
			t.Errorf("eta after %d records = %v, want positive while work remains", i+1, eta)
		}
	}
	if !(etas[0] > etas[1] && etas[1] > etas[2]) {
		t.Errorf("eta should shrink as the run advances, got %v", etas)
	}
	if done.ETAMinutes != 0 {
		t.Errorf("eta = %v after completion, want 0", done.ETAMinutes)
	}
}

func TestResumeRejectsNonPausedJobs(t *testing.T) {
	c := testController(t, &fakeFetcher{records: videos(1)}, &fakeProcessor{})

	job, err := c.StartJob(context.Background(), Request{Summarize: true})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	waitForStatus(t, c, job.ID, domain.JobStatusCompleted)

	if err := c.Resume(job.ID); err == nil {
		t.Fatal("resuming a completed job must fail")
	}
}
