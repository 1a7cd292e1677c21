package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nahuelp/clipstack/internal/classify"
	"github.com/nahuelp/clipstack/internal/domain"
	"github.com/nahuelp/clipstack/internal/transcript"
)

type fakeStore struct {
	updates   map[string]interface{}
	updateErr error
	history   map[int64]int
	links     []domain.VideoTopic
}

func (s *fakeStore) UpdateFields(_ context.Context, _ int64, fields map[string]interface{}) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = fields
	return nil
}

func (s *fakeStore) AuthorHistory(_ context.Context, _ string) (map[int64]int, error) {
	return s.history, nil
}

func (s *fakeStore) ReplaceTopics(_ context.Context, _ int64, links []domain.VideoTopic) error {
	s.links = links
	return nil
}

type fakeAcquirer struct {
	acq   transcript.Acquisition
	calls int
}

func (a *fakeAcquirer) Acquire(_ context.Context, _ *domain.Video) transcript.Acquisition {
	a.calls++
	return a.acq
}

type fakeClassifier struct {
	outcome classify.Outcome
	err     error
	gotIn   classify.Input
}

func (c *fakeClassifier) Classify(_ context.Context, in classify.Input) (classify.Outcome, error) {
	c.gotIn = in
	return c.outcome, c.err
}

type fakeSummarizer struct {
	summary string
	points  []string
	err     error
	called  bool
}

func (s *fakeSummarizer) Summarize(_ context.Context, _, _ string) (string, []string, error) {
	s.called = true
	return s.summary, s.points, s.err
}

func allStages() StageOptions {
	return StageOptions{Transcribe: true, Categorize: true, Summarize: true}
}

func TestProcessVideoFullEnrichment(t *testing.T) {
	areaID := int64(3)
	store := &fakeStore{history: map[int64]int{3: 5}}
	acq := &fakeAcquirer{acq: transcript.Acquisition{Text: "charla sobre entrenamiento", Method: transcript.MethodSubtitles}}
	cls := &fakeClassifier{outcome: classify.Outcome{
		AreaID:     &areaID,
		TopicIDs:   []int64{7, 9},
		Confidence: 0.8,
		Method:     classify.MethodMultiSignal,
	}}
	sum := &fakeSummarizer{summary: "un resumen", points: []string{"punto uno", "punto dos"}}

	p := NewPipeline(store, acq, cls, sum)
	res := p.ProcessVideo(context.Background(), &domain.Video{ID: 1, Title: "t", Author: "a"}, allStages())

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Transcribed || !res.Categorized || !res.Summarized {
		t.Fatalf("expected all stages to succeed, got %+v", res)
	}
	if res.TranscriptMethod != transcript.MethodSubtitles {
		t.Errorf("transcript method = %q", res.TranscriptMethod)
	}
	if res.KeyPoints != 2 {
		t.Errorf("key points = %d, want 2", res.KeyPoints)
	}

	if store.updates["transcript"] != "charla sobre entrenamiento" {
		t.Errorf("transcript not persisted: %v", store.updates["transcript"])
	}
	if store.updates["has_transcript"] != true {
		t.Error("has_transcript not set")
	}
	if store.updates["area_id"] != areaID {
		t.Errorf("area_id = %v, want %d", store.updates["area_id"], areaID)
	}
	if store.updates["summary"] != "un resumen" {
		t.Errorf("summary = %v", store.updates["summary"])
	}
	if _, ok := store.updates["ai_processed_at"]; !ok {
		t.Error("ai_processed_at not stamped")
	}
	if len(store.links) != 2 || store.links[0].TopicID != 7 {
		t.Errorf("topic links = %+v", store.links)
	}
	if cls.gotIn.Transcript != "charla sobre entrenamiento" {
		t.Errorf("classifier got transcript %q", cls.gotIn.Transcript)
	}
	if len(cls.gotIn.AuthorHistory) != 1 {
		t.Errorf("classifier got history %v", cls.gotIn.AuthorHistory)
	}
}

func TestProcessVideoClassifierErrorDoesNotBlockSummary(t *testing.T) {
	store := &fakeStore{}
	acq := &fakeAcquirer{acq: transcript.Acquisition{Text: "texto largo", Method: transcript.MethodWhisper}}
	cls := &fakeClassifier{err: errors.New("model exploded")}
	sum := &fakeSummarizer{summary: "resumen", points: []string{"punto"}}

	p := NewPipeline(store, acq, cls, sum)
	res := p.ProcessVideo(context.Background(), &domain.Video{ID: 2}, allStages())

	if res.Err == nil {
		t.Fatal("expected classifier error on result")
	}
	if !sum.called {
		t.Error("summarizer should still run after a classification failure")
	}
	if !res.Summarized {
		t.Error("summarization should succeed independently")
	}
	if store.updates["summary"] != "resumen" {
		t.Errorf("summary not persisted: %v", store.updates)
	}
}

func TestProcessVideoExistingTranscriptNotRewritten(t *testing.T) {
	areaID := int64(1)
	store := &fakeStore{}
	acq := &fakeAcquirer{acq: transcript.Acquisition{Text: "texto previo", Method: transcript.MethodExisting}}
	cls := &fakeClassifier{outcome: classify.Outcome{AreaID: &areaID, Confidence: 0.7, Method: classify.MethodMultiSignal}}
	sum := &fakeSummarizer{summary: "s", points: nil}

	p := NewPipeline(store, acq, cls, sum)
	video := &domain.Video{ID: 3, Transcript: "texto previo", HasTranscript: true}
	res := p.ProcessVideo(context.Background(), video, allStages())

	if res.Transcribed {
		t.Error("existing transcript must not count as a new transcription")
	}
	if _, ok := store.updates["transcript"]; ok {
		t.Error("existing transcript must not be rewritten")
	}
	if !res.Categorized {
		t.Error("classification should run on the existing transcript")
	}
}

func TestProcessVideoUploadDatePersistedWhenTranscriptFails(t *testing.T) {
	when := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	acq := &fakeAcquirer{acq: transcript.Acquisition{UploadDate: &when}}
	p := NewPipeline(store, acq, &fakeClassifier{}, &fakeSummarizer{})

	res := p.ProcessVideo(context.Background(), &domain.Video{ID: 4}, StageOptions{Transcribe: true})

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if store.updates["upload_date"] != when {
		t.Errorf("upload_date = %v, want %v", store.updates["upload_date"], when)
	}
}

func TestProcessVideoUnclassifiableSkipsAreaButRecordsReview(t *testing.T) {
	store := &fakeStore{}
	acq := &fakeAcquirer{acq: transcript.Acquisition{Text: "texto", Method: transcript.MethodExisting}}
	cls := &fakeClassifier{outcome: classify.Outcome{
		Confidence:  0,
		NeedsReview: true,
		Method:      classify.MethodUnclassifiable,
	}}
	p := NewPipeline(store, acq, cls, &fakeSummarizer{})

	res := p.ProcessVideo(context.Background(), &domain.Video{ID: 5, Transcript: "texto"}, StageOptions{Categorize: true})

	if res.AreaAssigned {
		t.Error("an unclassifiable record must not count as area-assigned")
	}
	if !res.Categorized {
		t.Error("the classifier did reach a decision, degraded as it is")
	}
	if _, ok := store.updates["area_id"]; ok {
		t.Error("area_id must be left untouched when no area won")
	}
	if store.updates["needs_review"] != true {
		t.Error("needs_review must be recorded for unclassifiable records")
	}
	if store.updates["method"] != classify.MethodUnclassifiable {
		t.Errorf("method = %v", store.updates["method"])
	}
}

func TestProcessVideoSkipsModelStagesWithoutTranscript(t *testing.T) {
	store := &fakeStore{}
	acq := &fakeAcquirer{acq: transcript.Acquisition{}}
	cls := &fakeClassifier{}
	sum := &fakeSummarizer{}
	p := NewPipeline(store, acq, cls, sum)

	res := p.ProcessVideo(context.Background(), &domain.Video{ID: 6}, allStages())

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if sum.called {
		t.Error("summarizer must not run without a transcript")
	}
	if len(store.updates) != 0 {
		t.Errorf("no fields should be persisted, got %v", store.updates)
	}
	if !res.Skipped {
		t.Error("an untouched record should be reported as skipped")
	}
}

func TestProcessVideoDoesNotAcquireWhenTranscriptionIsOff(t *testing.T) {
	areaID := int64(4)
	store := &fakeStore{}
	acq := &fakeAcquirer{acq: transcript.Acquisition{Text: "texto descargado", Method: transcript.MethodWhisper}}
	cls := &fakeClassifier{outcome: classify.Outcome{AreaID: &areaID, Confidence: 0.6, Method: classify.MethodMultiSignal}}
	sum := &fakeSummarizer{summary: "s", points: []string{"p"}}

	p := NewPipeline(store, acq, cls, sum)
	video := &domain.Video{ID: 8, Transcript: "texto guardado", HasTranscript: true}
	opts := StageOptions{Categorize: true, Summarize: true}
	res := p.ProcessVideo(context.Background(), video, opts)

	if acq.calls != 0 {
		t.Errorf("acquirer invoked %d times although transcription was off", acq.calls)
	}
	if res.Transcribed {
		t.Error("nothing should count as transcribed without the transcription stage")
	}
	if cls.gotIn.Transcript != "texto guardado" {
		t.Errorf("classifier got transcript %q, want the stored one", cls.gotIn.Transcript)
	}
	if !res.Summarized {
		t.Error("summarization should run on the stored transcript")
	}
}

func TestProcessVideoClassifyWithoutTranscriptFlag(t *testing.T) {
	areaID := int64(2)
	store := &fakeStore{}
	acq := &fakeAcquirer{acq: transcript.Acquisition{}}
	cls := &fakeClassifier{outcome: classify.Outcome{AreaID: &areaID, Confidence: 0.5, Method: classify.MethodTagsFallback}}
	p := NewPipeline(store, acq, cls, &fakeSummarizer{})

	opts := StageOptions{Categorize: true, ClassifyWithoutTranscript: true}
	res := p.ProcessVideo(context.Background(), &domain.Video{ID: 7, Tags: domain.StringArray{"gym"}}, opts)

	if !res.Categorized {
		t.Error("classification should run on metadata when the flag is set")
	}
}
