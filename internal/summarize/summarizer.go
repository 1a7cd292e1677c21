package summarize

import (
	"context"
	"fmt"

	"github.com/nahuelp/clipstack/internal/llm"
	"github.com/nahuelp/clipstack/internal/prompts"
)

// transcriptExcerpt caps the transcript portion of the prompt to bound
// request size.
const transcriptExcerpt = 8000

// Summarizer turns a transcript into a structured summary via a
// language-generation collaborator.
type Summarizer struct {
	gen llm.Generator
}

// NewSummarizer creates a Summarizer.
// Parameters:
//   - gen: language-generation collaborator.
// Returns:
//   - *Summarizer: summarizer instance.
func NewSummarizer(gen llm.Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// Summarize generates a summary and key points for one transcript.
// It only fails when the underlying call errors; an unstructured model
// response still yields a usable (raw, truncated) summary.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - title: video title for prompt context.
//   - transcript: full transcript text.
// Returns:
//   - string: summary paragraph.
//   - []string: up to six key points.
//   - error: non-nil if the model call failed.
func (s *Summarizer) Summarize(ctx context.Context, title, transcript string) (string, []string, error) {
	if transcript == "" {
		return "", nil, fmt.Errorf("no transcript to summarize")
	}

	excerpt := transcript
	if len(excerpt) > transcriptExcerpt {
		excerpt = excerpt[:transcriptExcerpt]
	}

	raw, err := s.gen.Generate(ctx, fmt.Sprintf(prompts.SummaryPrompt, title, excerpt), llm.Options{
		Temperature: 0.3,
		NumPredict:  600,
	})
	if err != nil {
		return "", nil, fmt.Errorf("summary generation failed: %w", err)
	}

	summary, keyPoints := Parse(raw)
	return summary, keyPoints, nil
}
