package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/nahuelp/clipstack/internal/classify"
	"github.com/nahuelp/clipstack/internal/domain"
	"github.com/nahuelp/clipstack/internal/logger"
	"github.com/nahuelp/clipstack/internal/transcript"
)

// StageOptions toggles the enrichment stages for one job.
type StageOptions struct {
	Transcribe                bool
	Categorize                bool
	Summarize                 bool
	ClassifyWithoutTranscript bool
}

// Result reports what happened to one record. Err carries the first
// per-record stage failure; later stages still ran with whatever data
// was available.
type Result struct {
	Transcribed      bool
	TranscriptMethod string
	Categorized      bool // classifier ran and reached a decision
	AreaAssigned     bool // the decision named an area
	Summarized       bool
	KeyPoints        int
	Skipped          bool // no stage had anything to do
	Err              error
}

// videoStore is the slice of the record store the pipeline writes to.
type videoStore interface {
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	AuthorHistory(ctx context.Context, author string) (map[int64]int, error)
	ReplaceTopics(ctx context.Context, videoID int64, links []domain.VideoTopic) error
}

// transcriptAcquirer resolves a transcript for one record.
type transcriptAcquirer interface {
	Acquire(ctx context.Context, video *domain.Video) transcript.Acquisition
}

// recordClassifier decides area and topics for one record.
type recordClassifier interface {
	Classify(ctx context.Context, in classify.Input) (classify.Outcome, error)
}

// transcriptSummarizer produces a summary and key points from a transcript.
type transcriptSummarizer interface {
	Summarize(ctx context.Context, title, transcript string) (string, []string, error)
}

// Pipeline runs the per-record enrichment stages: transcript acquisition,
// classification, and summarization, persisting results as it goes.
type Pipeline struct {
	store      videoStore
	acquirer   transcriptAcquirer
	classifier recordClassifier
	summarizer transcriptSummarizer
}

// NewPipeline wires the per-record pipeline.
// Parameters:
//   - store: record store for persistence and author history.
//   - acquirer: transcript fallback chain.
//   - classifier: multi-signal classifier.
//   - summarizer: transcript summarizer.
// Returns:
//   - *Pipeline: pipeline instance.
func NewPipeline(store videoStore, acquirer transcriptAcquirer, classifier recordClassifier, summarizer transcriptSummarizer) *Pipeline {
	return &Pipeline{
		store:      store,
		acquirer:   acquirer,
		classifier: classifier,
		summarizer: summarizer,
	}
}

// ProcessVideo enriches one record. Each stage is independently guarded:
// a failure is recorded on the result and the remaining stages still run
// with whatever data exists. Transcript acquisition runs only when
// transcription is enabled; classification and summarization otherwise
// reuse the transcript stored on the record. Any record that received at
// least one field update gets an enrichment timestamp.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - video: record to enrich; not mutated.
//   - opts: stage toggles for this job.
// Returns:
//   - Result: per-record outcome including the first stage error.
func (p *Pipeline) ProcessVideo(ctx context.Context, video *domain.Video, opts StageOptions) Result {
	ctx = logger.SetVideoID(ctx, video.ID)
	var res Result
	updates := make(map[string]interface{})

	text := video.Transcript

	// The acquisition chain reaches for yt-dlp and whisper, so it only
	// runs when transcription was requested. The other stages work off
	// the transcript the record already carries.
	if opts.Transcribe {
		tctx := logger.SetStage(ctx, "transcript")
		acq := p.acquirer.Acquire(tctx, video)
		if acq.Text != "" {
			text = acq.Text
			res.TranscriptMethod = acq.Method
			if acq.Method != transcript.MethodExisting {
				res.Transcribed = true
				updates["transcript"] = acq.Text
				updates["has_transcript"] = true
				updates["transcript_method"] = acq.Method
			}
		}
		if acq.UploadDate != nil && video.UploadDate == nil {
			updates["upload_date"] = *acq.UploadDate
		}
		logger.With(logger.Fields{
			logger.FieldDurationMs: acq.Elapsed.Milliseconds(),
			logger.FieldStatus:     acq.Method,
		}).Debug(tctx, "transcript acquisition finished")
	}

	if opts.Categorize && (text != "" || opts.ClassifyWithoutTranscript) {
		cctx := logger.SetStage(ctx, "classify")
		if err := p.categorize(cctx, video, text, updates); err != nil {
			res.Err = err
			logger.CtxWarn(cctx, "classification failed: %v", err)
		} else {
			res.Categorized = true
			_, res.AreaAssigned = updates["area_id"]
		}
	}

	if opts.Summarize && text != "" {
		sctx := logger.SetStage(ctx, "summarize")
		summary, keyPoints, err := p.summarizer.Summarize(sctx, video.Title, text)
		if err != nil {
			if res.Err == nil {
				res.Err = err
			}
			logger.CtxWarn(sctx, "summarization failed: %v", err)
		} else {
			res.Summarized = true
			res.KeyPoints = len(keyPoints)
			updates["summary"] = summary
			updates["key_points"] = domain.StringArray(keyPoints)
		}
	}

	if len(updates) > 0 {
		updates["ai_processed_at"] = time.Now()
		if err := p.store.UpdateFields(ctx, video.ID, updates); err != nil {
			if res.Err == nil {
				res.Err = fmt.Errorf("failed to persist enrichment: %w", err)
			}
		}
	} else if res.Err == nil {
		res.Skipped = true
	}

	return res
}

// categorize runs the classifier and stages its outcome into updates.
func (p *Pipeline) categorize(ctx context.Context, video *domain.Video, text string, updates map[string]interface{}) error {
	history, err := p.store.AuthorHistory(ctx, video.Author)
	if err != nil {
		logger.CtxWarn(ctx, "author history unavailable: %v", err)
		history = nil
	}

	outcome, err := p.classifier.Classify(ctx, classify.Input{
		Title:         video.Title,
		Author:        video.Author,
		Description:   video.Description,
		Tags:          video.Tags,
		Transcript:    text,
		AuthorHistory: history,
	})
	if err != nil {
		return err
	}

	updates["confidence"] = outcome.Confidence
	updates["needs_review"] = outcome.NeedsReview
	updates["method"] = outcome.Method
	if outcome.AreaID == nil {
		return nil
	}
	updates["area_id"] = *outcome.AreaID

	if len(outcome.TopicIDs) > 0 {
		links := make([]domain.VideoTopic, 0, len(outcome.TopicIDs))
		for _, topicID := range outcome.TopicIDs {
			links = append(links, domain.VideoTopic{
				VideoID:     video.ID,
				TopicID:     topicID,
				Confidence:  outcome.Confidence,
				NeedsReview: outcome.NeedsReview,
			})
		}
		if err := p.store.ReplaceTopics(ctx, video.ID, links); err != nil {
			return fmt.Errorf("failed to persist topic links: %w", err)
		}
	}
	return nil
}
